package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotStatus string

const (
	SlotFree    SlotStatus = "FREE"
	SlotBusy    SlotStatus = "BUSY"
	SlotLecture SlotStatus = "LECTURE"
	SlotOther   SlotStatus = "OTHER"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotFree, SlotBusy, SlotLecture, SlotOther:
		return true
	}
	return false
}

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

func (d DayOfWeek) Valid() bool { return d >= Sunday && d <= Saturday }

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return "Unknown"
	}
	return time.Weekday(d).String()
}

type TimeSlot struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TeacherID   uuid.UUID  `json:"teacher_id" gorm:"type:uuid;index;not null"`
	DayOfWeek   DayOfWeek  `json:"day_of_week" gorm:"type:smallint;not null"`
	StartTime   TimeOfDay  `json:"start_time" gorm:"type:time;not null"`
	EndTime     TimeOfDay  `json:"end_time" gorm:"type:time;not null"`
	Status      SlotStatus `json:"status" gorm:"type:varchar(16);not null;default:'FREE'"`
	IsRecurring bool       `json:"is_recurring" gorm:"not null;default:false"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *TimeSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SlotFree
	}
	return nil
}

func (s *TimeSlot) Bounds() Range {
	return Range{Start: s.StartTime, End: s.EndTime}
}
