package booking

import (
	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/models"
)

// GridCell is one (day, hour) bucket of the student booking view.
type GridCell struct {
	SlotID       uuid.UUID         `json:"slot_id"`
	Status       models.SlotStatus `json:"status"`
	Color        string            `json:"color"`
	PendingCount int               `json:"pending_count"`
}

type GridRow struct {
	Hour  int          `json:"hour"`
	Cells [7]*GridCell `json:"cells"`
}

// Grid is indexed by hour of day, then by day of week (0 = Sunday).
type Grid struct {
	Rows []GridRow `json:"rows"`
}

var statusColors = map[models.SlotStatus]string{
	models.SlotFree:    "#4CAF50",
	models.SlotBusy:    "#F44336",
	models.SlotLecture: "#2196F3",
	models.SlotOther:   "#9E9E9E",
}

// statusRank decides which slot wins a cell shared by overlapping slots.
var statusRank = map[models.SlotStatus]int{
	models.SlotFree:    0,
	models.SlotOther:   1,
	models.SlotLecture: 2,
	models.SlotBusy:    3,
}

func StatusColor(s models.SlotStatus) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[models.SlotOther]
}

// BuildGrid buckets slots into hour cells spanning the earliest start to the
// latest end. A slot occupies every hour it overlaps.
func BuildGrid(slots []models.ScheduleSlot) Grid {
	if len(slots) == 0 {
		return Grid{Rows: []GridRow{}}
	}

	first, last := 24, 0
	for _, s := range slots {
		if h := s.StartTime.Hour(); h < first {
			first = h
		}
		if h := endHour(s.EndTime); h > last {
			last = h
		}
	}

	rows := make([]GridRow, 0, last-first)
	index := make(map[int]int, last-first)
	for h := first; h < last; h++ {
		index[h] = len(rows)
		rows = append(rows, GridRow{Hour: h})
	}

	for _, s := range slots {
		if !s.DayOfWeek.Valid() {
			continue
		}
		pending := 0
		for _, b := range s.Bookings {
			if b.Status == models.BookingPending {
				pending++
			}
		}
		for h := s.StartTime.Hour(); h < endHour(s.EndTime); h++ {
			row := &rows[index[h]]
			existing := row.Cells[s.DayOfWeek]
			if existing != nil && statusRank[existing.Status] >= statusRank[s.Status] {
				continue
			}
			row.Cells[s.DayOfWeek] = &GridCell{
				SlotID:       s.ID,
				Status:       s.Status,
				Color:        StatusColor(s.Status),
				PendingCount: pending,
			}
		}
	}
	return Grid{Rows: rows}
}

// endHour is the first hour not touched by a slot ending at t.
func endHour(t models.TimeOfDay) int {
	if t.Minute() == 0 && t.Second() == 0 {
		return t.Hour()
	}
	return t.Hour() + 1
}
