package booking

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
)

type CreateSlotInput struct {
	DayOfWeek   models.DayOfWeek
	Start       models.TimeOfDay
	End         models.TimeOfDay
	Status      models.SlotStatus
	IsRecurring bool
}

// CreateSlot adds a bookable window to the calling teacher's schedule.
func (e *Engine) CreateSlot(ctx context.Context, p *identity.Principal, in CreateSlotInput) (*models.TimeSlot, error) {
	const op = "create_slot"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if !p.IsTeacher() {
		return nil, e.fail(op, apperr.ErrNotATeacher)
	}
	if !in.DayOfWeek.Valid() {
		return nil, e.fail(op, apperr.Validation("Day of week must be between 0 and 6",
			map[string][]string{"day_of_week": {"range"}}))
	}
	if !(models.Range{Start: in.Start, End: in.End}).Valid() {
		return nil, e.fail(op, apperr.ErrInvalidRange)
	}
	status := in.Status
	if status == "" {
		status = models.SlotFree
	}
	if err := checkManualStatus(status); err != nil {
		return nil, e.fail(op, err)
	}

	slot := &models.TimeSlot{
		TeacherID:   p.ProfileID,
		DayOfWeek:   in.DayOfWeek,
		StartTime:   in.Start,
		EndTime:     in.End,
		Status:      status,
		IsRecurring: in.IsRecurring,
	}
	if err := e.store.CreateTimeSlot(ctx, slot); err != nil {
		return nil, e.fail(op, classify("create time slot", err, apperr.ErrTeacherNotFound))
	}

	e.log.Info("Time slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("teacher_id", slot.TeacherID.String()),
		zap.String("day", slot.DayOfWeek.String()),
	)
	e.invalidate(ctx, slot.TeacherID)
	return slot, nil
}

// SetSlotStatus is the teacher's administrative override (FREE, LECTURE,
// OTHER). A slot that holds an approved booking keeps its BUSY status.
func (e *Engine) SetSlotStatus(ctx context.Context, p *identity.Principal, slotID uuid.UUID, status models.SlotStatus) (*models.TimeSlot, error) {
	const op = "set_slot_status"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if !p.IsTeacher() {
		return nil, e.fail(op, apperr.ErrNotATeacher)
	}
	if err := checkManualStatus(status); err != nil {
		return nil, e.fail(op, err)
	}

	var updated *models.TimeSlot
	err := e.store.Transaction(ctx, func(tx Store) error {
		slot, err := tx.LockTimeSlot(ctx, slotID)
		if err != nil {
			return classify("lock time slot", err, apperr.ErrSlotNotFound)
		}
		if slot.TeacherID != p.ProfileID {
			return apperr.ErrNotOwner
		}
		taken, err := tx.CountApprovedBookings(ctx, slot.ID, uuid.Nil)
		if err != nil {
			return classify("count approved bookings", err, apperr.ErrSlotNotFound)
		}
		if taken > 0 {
			return apperr.ErrSlotTaken
		}
		if err := tx.UpdateTimeSlotStatus(ctx, slot.ID, status); err != nil {
			return classify("update slot status", err, apperr.ErrSlotNotFound)
		}
		slot.Status = status
		updated = slot
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err)
	}

	e.log.Info("Time slot status changed",
		zap.String("slot_id", updated.ID.String()),
		zap.String("status", string(status)),
	)
	e.invalidate(ctx, updated.TeacherID)
	return updated, nil
}

// BUSY is reachable only through ApproveBooking.
func checkManualStatus(status models.SlotStatus) error {
	if !status.Valid() {
		return apperr.ErrInvalidStatus.Withf("Unknown slot status %q", status)
	}
	if status == models.SlotBusy {
		return apperr.Validation("A slot becomes BUSY only by approving a booking",
			map[string][]string{"status": {"oneof"}})
	}
	return nil
}

func (e *Engine) invalidate(ctx context.Context, teacherID uuid.UUID) {
	if err := e.cache.Invalidate(ctx, teacherID); err != nil {
		e.log.Warn("Failed to invalidate schedule cache",
			zap.String("teacher_id", teacherID.String()), zap.Error(err))
	}
}
