package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "PENDING"
	BookingApproved BookingStatus = "APPROVED"
	BookingRejected BookingStatus = "REJECTED"
)

func (s BookingStatus) Terminal() bool {
	return s == BookingApproved || s == BookingRejected
}

type Booking struct {
	ID                 uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	TeacherID          uuid.UUID     `json:"teacher_id" gorm:"type:uuid;index;not null"`
	StudentID          uuid.UUID     `json:"student_id" gorm:"type:uuid;index;not null"`
	TimeSlotID         uuid.UUID     `json:"time_slot_id" gorm:"type:uuid;index;not null"`
	Reason             string        `json:"reason" gorm:"type:text;not null"`
	RequestedStartTime TimeOfDay     `json:"requested_start_time" gorm:"type:time;not null"`
	RequestedEndTime   TimeOfDay     `json:"requested_end_time" gorm:"type:time;not null"`
	ApprovedStartTime  *TimeOfDay    `json:"approved_start_time,omitempty" gorm:"type:time"`
	ApprovedEndTime    *TimeOfDay    `json:"approved_end_time,omitempty" gorm:"type:time"`
	Status             BookingStatus `json:"status" gorm:"type:varchar(16);not null;default:'PENDING'"`
	Notes              *string       `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	return nil
}

func (b *Booking) Requested() Range {
	return Range{Start: b.RequestedStartTime, End: b.RequestedEndTime}
}

// Transition moves b to the given status. PENDING may become APPROVED or
// REJECTED; both are terminal.
func (b *Booking) Transition(to BookingStatus) error {
	switch b.Status {
	case BookingPending:
		if to != BookingApproved && to != BookingRejected {
			return fmt.Errorf("invalid transition from %s to %s", b.Status, to)
		}
	case BookingApproved, BookingRejected:
		return fmt.Errorf("no transitions allowed from %s", b.Status)
	default:
		return fmt.Errorf("unknown booking status %q", b.Status)
	}
	b.Status = to
	return nil
}
