package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date, stored in a Postgres TIME column.
type TimeOfDay struct{ time.Time }

// Clock builds a TimeOfDay from hours and minutes.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay{Time: time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)}
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	return t, t.parse(s)
}

func (t *TimeOfDay) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 {
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	t.Time = time.Date(0, 1, 1, tt.Hour(), tt.Minute(), tt.Second(), 0, time.UTC)
	return nil
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour()*60 + t.Minute()
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.seconds() < o.seconds() }
func (t TimeOfDay) After(o TimeOfDay) bool  { return t.seconds() > o.seconds() }
func (t TimeOfDay) Equal(o TimeOfDay) bool  { return t.seconds() == o.seconds() }

func (t TimeOfDay) seconds() int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// String prints "HH:MM", or "HH:MM:SS" when seconds are set, so a value
// always parses back to itself.
func (t TimeOfDay) String() string {
	if t.Second() != 0 {
		return t.Format("15:04:05")
	}
	return t.Format("15:04")
}

func (t *TimeOfDay) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		t.Time = time.Date(0, 1, 1, x.Hour(), x.Minute(), x.Second(), 0, time.UTC)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("timeofday: unsupported Scan type %T", v)
	}
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.Format("15:04:05"), nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}

// Range is a half-open [Start, End) interval within one day.
type Range struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

func (r Range) Valid() bool { return r.Start.Before(r.End) }

// Contains reports whether o lies inside r. Both are half-open, so o may end
// exactly where r ends but may not start there.
func (r Range) Contains(o Range) bool {
	return !o.Start.Before(r.Start) && o.Start.Before(r.End) &&
		o.End.After(r.Start) && !o.End.After(r.End)
}
