// Package booking owns the slot/booking consistency rules: a requested range
// must fit its slot, a booking is decided exactly once, and approving a
// booking marks its slot BUSY in the same transaction.
package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
)

const maxReasonLength = 1000

type Engine struct {
	store    Store
	cache    ScheduleCache
	notifier Notifier
	metrics  Metrics
	log      *zap.Logger
}

type Option func(*Engine)

func WithCache(c ScheduleCache) Option { return func(e *Engine) { e.cache = c } }

func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

func WithMetrics(m Metrics) Option { return func(e *Engine) { e.metrics = m } }

func NewEngine(store Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		cache:    noopCache{},
		notifier: noopNotifier{},
		metrics:  noopMetrics{},
		log:      log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

type CreateBookingInput struct {
	TeacherID  uuid.UUID
	TimeSlotID uuid.UUID
	Reason     string
	Start      models.TimeOfDay
	End        models.TimeOfDay
}

// CreateBooking records a PENDING request by the calling student. Other
// pending requests on the same slot are allowed to coexist.
func (e *Engine) CreateBooking(ctx context.Context, p *identity.Principal, in CreateBookingInput) (*models.Booking, error) {
	const op = "create_booking"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if !p.IsStudent() {
		return nil, e.fail(op, apperr.ErrNotAStudent)
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, e.fail(op, apperr.Validation("Reason is required", map[string][]string{"reason": {"required"}}))
	}
	if len(reason) > maxReasonLength {
		return nil, e.fail(op, apperr.Validation("Reason is too long", map[string][]string{"reason": {"max"}}))
	}

	requested := models.Range{Start: in.Start, End: in.End}
	if !requested.Valid() {
		return nil, e.fail(op, apperr.ErrOutOfBounds.Withf("Requested start time must be before end time"))
	}

	slot, err := e.store.GetTimeSlot(ctx, in.TimeSlotID)
	if err != nil {
		return nil, e.fail(op, classify("get time slot", err, apperr.ErrSlotNotFound))
	}
	if slot.TeacherID != in.TeacherID {
		return nil, e.fail(op, apperr.ErrSlotNotFound)
	}
	if !slot.Bounds().Contains(requested) {
		return nil, e.fail(op, apperr.ErrOutOfBounds.Withf(
			"Requested time %s-%s is outside the slot %s-%s",
			requested.Start, requested.End, slot.StartTime, slot.EndTime))
	}

	b := &models.Booking{
		TeacherID:          slot.TeacherID,
		StudentID:          p.ProfileID,
		TimeSlotID:         slot.ID,
		Reason:             reason,
		RequestedStartTime: requested.Start,
		RequestedEndTime:   requested.End,
		Status:             models.BookingPending,
	}
	if err := e.store.CreateBooking(ctx, b); err != nil {
		return nil, e.fail(op, classify("create booking", err, apperr.ErrSlotNotFound))
	}

	e.log.Info("Booking requested",
		zap.String("booking_id", b.ID.String()),
		zap.String("student_id", b.StudentID.String()),
		zap.String("slot_id", b.TimeSlotID.String()),
		zap.String("range", requested.Start.String()+"-"+requested.End.String()),
	)
	e.afterWrite(ctx, b, EventRequested)
	return b, nil
}

type ApproveInput struct {
	// Start and End narrow the requested range; nil keeps the requested bound.
	Start *models.TimeOfDay
	End   *models.TimeOfDay
	Notes *string
}

// ApproveBooking marks the booking APPROVED and its slot BUSY atomically.
// The slot row is locked first so concurrent approvals on one slot
// serialise; only the first sees the slot FREE.
func (e *Engine) ApproveBooking(ctx context.Context, p *identity.Principal, bookingID uuid.UUID, in ApproveInput) (*models.Booking, error) {
	const op = "approve_booking"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if !p.IsTeacher() {
		return nil, e.fail(op, apperr.ErrNotATeacher)
	}

	var approved *models.Booking
	err := e.store.Transaction(ctx, func(tx Store) error {
		current, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return classify("get booking", err, apperr.ErrBookingNotFound)
		}
		if current.TeacherID != p.ProfileID {
			return apperr.ErrNotOwner
		}

		slot, err := tx.LockTimeSlot(ctx, current.TimeSlotID)
		if err != nil {
			return classify("lock time slot", err, apperr.ErrSlotNotFound)
		}
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return classify("lock booking", err, apperr.ErrBookingNotFound)
		}
		if b.Status != models.BookingPending {
			return apperr.ErrBookingDecided.Withf("Booking is already %s", b.Status)
		}

		window := b.Requested()
		if in.Start != nil {
			window.Start = *in.Start
		}
		if in.End != nil {
			window.End = *in.End
		}
		if !window.Valid() {
			return apperr.ErrOutOfBounds.Withf("Approved start time must be before end time")
		}
		if !b.Requested().Contains(window) {
			return apperr.ErrOutOfBounds.Withf("Approved time must lie within the requested time %s-%s",
				b.RequestedStartTime, b.RequestedEndTime)
		}

		taken, err := tx.CountApprovedBookings(ctx, slot.ID, b.ID)
		if err != nil {
			return classify("count approved bookings", err, apperr.ErrSlotNotFound)
		}
		if taken > 0 {
			return apperr.ErrSlotTaken
		}
		if slot.Status != models.SlotFree {
			return apperr.ErrSlotUnavailable.Withf("Time slot is %s", slot.Status)
		}

		if err := b.Transition(models.BookingApproved); err != nil {
			return apperr.ErrBookingDecided.With(err)
		}
		b.ApprovedStartTime = &window.Start
		b.ApprovedEndTime = &window.End
		if in.Notes != nil {
			b.Notes = trimmedOrNil(*in.Notes)
		}
		if err := tx.SaveBookingDecision(ctx, b); err != nil {
			return classify("save booking", err, apperr.ErrBookingNotFound)
		}
		if err := tx.UpdateTimeSlotStatus(ctx, slot.ID, models.SlotBusy); err != nil {
			return classify("mark slot busy", err, apperr.ErrSlotNotFound)
		}
		approved = b
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err)
	}

	e.log.Info("Booking approved",
		zap.String("booking_id", approved.ID.String()),
		zap.String("slot_id", approved.TimeSlotID.String()),
		zap.String("teacher_id", approved.TeacherID.String()),
	)
	e.afterWrite(ctx, approved, EventApproved)
	return approved, nil
}

// RejectBooking marks a PENDING booking REJECTED. The slot is never touched.
func (e *Engine) RejectBooking(ctx context.Context, p *identity.Principal, bookingID uuid.UUID, notes *string) (*models.Booking, error) {
	const op = "reject_booking"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if !p.IsTeacher() {
		return nil, e.fail(op, apperr.ErrNotATeacher)
	}

	var rejected *models.Booking
	err := e.store.Transaction(ctx, func(tx Store) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return classify("lock booking", err, apperr.ErrBookingNotFound)
		}
		if b.TeacherID != p.ProfileID {
			return apperr.ErrNotOwner
		}
		if err := b.Transition(models.BookingRejected); err != nil {
			return apperr.ErrBookingDecided.With(err)
		}
		if notes != nil {
			b.Notes = trimmedOrNil(*notes)
		}
		if err := tx.SaveBookingDecision(ctx, b); err != nil {
			return classify("save booking", err, apperr.ErrBookingNotFound)
		}
		rejected = b
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err)
	}

	e.log.Info("Booking rejected", zap.String("booking_id", rejected.ID.String()))
	e.afterWrite(ctx, rejected, EventRejected)
	return rejected, nil
}

// GetPendingBookings lists the teacher's undecided requests, newest first.
func (e *Engine) GetPendingBookings(ctx context.Context, p *identity.Principal, teacherID uuid.UUID) ([]models.PendingBooking, error) {
	if err := identity.RequireTeacher(p, teacherID); err != nil {
		return nil, e.fail("get_pending_bookings", err)
	}
	out, err := e.store.ListPendingBookings(ctx, teacherID)
	if err != nil {
		return nil, e.fail("get_pending_bookings", classify("list pending bookings", err, apperr.ErrTeacherNotFound))
	}
	if out == nil {
		out = []models.PendingBooking{}
	}
	return out, nil
}

// GetStudentBookings lists the calling student's bookings, newest first.
func (e *Engine) GetStudentBookings(ctx context.Context, p *identity.Principal) ([]models.StudentBooking, error) {
	if err := identity.Require(p); err != nil {
		return nil, e.fail("get_student_bookings", err)
	}
	if !p.IsStudent() {
		return nil, e.fail("get_student_bookings", apperr.ErrNotAStudent)
	}
	out, err := e.store.ListStudentBookings(ctx, p.ProfileID)
	if err != nil {
		return nil, e.fail("get_student_bookings", classify("list student bookings", err, apperr.ErrStudentNotFound))
	}
	if out == nil {
		out = []models.StudentBooking{}
	}
	return out, nil
}

// GetTeacherSchedule returns the teacher's slots by day of week with their bookings.
func (e *Engine) GetTeacherSchedule(ctx context.Context, teacherID uuid.UUID) ([]models.ScheduleSlot, error) {
	cached, gen, ok := e.cache.Get(ctx, teacherID)
	if ok {
		return cached, nil
	}
	exists, err := e.store.TeacherExists(ctx, teacherID)
	if err != nil {
		return nil, e.fail("get_teacher_schedule", classify("find teacher", err, apperr.ErrTeacherNotFound))
	}
	if !exists {
		return nil, e.fail("get_teacher_schedule", apperr.ErrTeacherNotFound)
	}
	slots, err := e.store.ListTeacherSchedule(ctx, teacherID)
	if err != nil {
		return nil, e.fail("get_teacher_schedule", classify("list schedule", err, apperr.ErrTeacherNotFound))
	}
	if slots == nil {
		slots = []models.ScheduleSlot{}
	}
	e.cache.Set(ctx, teacherID, gen, slots)
	return slots, nil
}

func (e *Engine) fail(op string, err error) error {
	ae := apperr.As(err)
	e.metrics.BookingFailure(op, ae.Code)
	if ae.Kind == apperr.KindPersistence {
		e.log.Error("Booking operation failed", zap.String("op", op), zap.Error(err))
	} else {
		e.log.Debug("Booking operation refused", zap.String("op", op), zap.String("code", ae.Code))
	}
	return ae
}

// afterWrite runs the post-commit side channels. Their failures never undo
// or hide a committed write.
func (e *Engine) afterWrite(ctx context.Context, b *models.Booking, ev Event) {
	e.metrics.BookingEvent(ev)
	if err := e.cache.Invalidate(ctx, b.TeacherID, b.StudentID); err != nil {
		e.log.Warn("Failed to invalidate schedule cache",
			zap.String("teacher_id", b.TeacherID.String()), zap.Error(err))
	}
	if err := e.notifier.BookingChanged(ctx, b.ID, ev); err != nil {
		e.log.Warn("Failed to send booking notification",
			zap.String("booking_id", b.ID.String()), zap.String("event", string(ev)), zap.Error(err))
	}
}

// classify maps a store error onto the taxonomy, using notFound for missing rows.
func classify(op string, err error, notFound *apperr.Error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperr.Persistence(op, err)
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) ([]models.ScheduleSlot, uint64, bool) {
	return nil, 0, false
}
func (noopCache) Set(context.Context, uuid.UUID, uint64, []models.ScheduleSlot) {}
func (noopCache) Invalidate(context.Context, uuid.UUID, ...uuid.UUID) error  { return nil }

type noopNotifier struct{}

func (noopNotifier) BookingChanged(context.Context, uuid.UUID, Event) error { return nil }

type noopMetrics struct{}

func (noopMetrics) BookingEvent(Event)            {}
func (noopMetrics) BookingFailure(string, string) {}
