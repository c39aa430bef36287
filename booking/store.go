package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/models"
)

// Store is the data access the engine needs. Get* methods return
// gorm.ErrRecordNotFound for missing rows; Lock* methods also take a row lock
// that is held until the surrounding transaction ends.
type Store interface {
	// Transaction runs fn atomically; any error rolls every write back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	TeacherExists(ctx context.Context, teacherID uuid.UUID) (bool, error)

	GetTimeSlot(ctx context.Context, id uuid.UUID) (*models.TimeSlot, error)
	LockTimeSlot(ctx context.Context, id uuid.UUID) (*models.TimeSlot, error)
	CreateTimeSlot(ctx context.Context, slot *models.TimeSlot) error
	UpdateTimeSlotStatus(ctx context.Context, id uuid.UUID, status models.SlotStatus) error
	// ListTeacherSchedule orders by day of week, then start time.
	ListTeacherSchedule(ctx context.Context, teacherID uuid.UUID) ([]models.ScheduleSlot, error)

	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	LockBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// SaveBookingDecision persists status, approved range and notes.
	SaveBookingDecision(ctx context.Context, b *models.Booking) error
	CountApprovedBookings(ctx context.Context, slotID uuid.UUID, excludeBookingID uuid.UUID) (int64, error)
	// ListPendingBookings orders newest first.
	ListPendingBookings(ctx context.Context, teacherID uuid.UUID) ([]models.PendingBooking, error)
	// ListStudentBookings orders newest first.
	ListStudentBookings(ctx context.Context, studentID uuid.UUID) ([]models.StudentBooking, error)
}

// ScheduleCache holds rendered teacher schedules between writes.
//
// Get also reports the teacher's current generation, which Invalidate bumps.
// Set stores slots only while the generation is still gen, so a read that
// loaded the store before a write cannot cache what that write replaced.
type ScheduleCache interface {
	Get(ctx context.Context, teacherID uuid.UUID) (slots []models.ScheduleSlot, gen uint64, ok bool)
	Set(ctx context.Context, teacherID uuid.UUID, gen uint64, slots []models.ScheduleSlot)
	// Invalidate drops the cached schedule and signals views to refetch.
	Invalidate(ctx context.Context, teacherID uuid.UUID, studentIDs ...uuid.UUID) error
}

type Event string

const (
	EventRequested Event = "requested"
	EventApproved  Event = "approved"
	EventRejected  Event = "rejected"
)

// Notifier delivers booking updates to the people involved.
type Notifier interface {
	BookingChanged(ctx context.Context, bookingID uuid.UUID, event Event) error
}

// Metrics records engine outcomes.
type Metrics interface {
	BookingEvent(event Event)
	BookingFailure(op string, code string)
}
