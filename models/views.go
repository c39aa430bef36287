package models

import (
	"time"

	"github.com/google/uuid"
)

// Read projections. Each query returns exactly one of these shapes.

type StudentIdentity struct {
	Name   string `json:"name"`
	RollNo string `json:"rollno"`
}

type TeacherIdentity struct {
	Username   string `json:"username"`
	Department string `json:"department"`
}

type SlotTime struct {
	DayOfWeek DayOfWeek `json:"day_of_week"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
}

// PendingBooking is a booking awaiting a decision, joined with who asked and when.
type PendingBooking struct {
	Booking
	Student  StudentIdentity `json:"student"`
	TimeSlot SlotTime        `json:"time_slot"`
}

// StudentBooking is a booking as seen by the student who made it.
type StudentBooking struct {
	Booking
	Teacher  TeacherIdentity `json:"teacher"`
	TimeSlot SlotTime        `json:"time_slot"`
}

// ScheduleSlot is a slot with all of its bookings.
type ScheduleSlot struct {
	TimeSlot
	Bookings []Booking `json:"bookings"`
}

type Sender struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type MessageView struct {
	ChatMessage
	Sender Sender `json:"sender"`
}

// TicketPreview is a ticket with only its most recent message.
type TicketPreview struct {
	ChatTicket
	Student       StudentIdentity `json:"student"`
	Teacher       TeacherIdentity `json:"teacher"`
	LatestMessage *MessageView    `json:"latest_message,omitempty"`
}

// ReminderTarget is an approved booking due today, with the addresses to notify.
type ReminderTarget struct {
	BookingID    uuid.UUID `json:"booking_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	TeacherName  string    `json:"teacher_name"`
	TeacherEmail string    `json:"teacher_email"`
	Start        TimeOfDay `json:"start_time"`
	End          TimeOfDay `json:"end_time"`
	Date         time.Time `json:"date"`
}
