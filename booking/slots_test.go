package booking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/models"
)

func TestCreateSlot(t *testing.T) {
	tests := []struct {
		name    string
		in      booking.CreateSlotInput
		wantErr *apperr.Error
	}{
		{
			name: "defaults to free",
			in:   booking.CreateSlotInput{DayOfWeek: models.Monday, Start: models.Clock(9, 0), End: models.Clock(10, 0)},
		},
		{
			name: "lecture",
			in: booking.CreateSlotInput{DayOfWeek: models.Tuesday, Start: models.Clock(11, 0), End: models.Clock(12, 0),
				Status: models.SlotLecture, IsRecurring: true},
		},
		{
			name:    "reversed range",
			in:      booking.CreateSlotInput{DayOfWeek: models.Monday, Start: models.Clock(10, 0), End: models.Clock(9, 0)},
			wantErr: apperr.ErrInvalidRange,
		},
		{
			name: "busy is not settable",
			in: booking.CreateSlotInput{DayOfWeek: models.Monday, Start: models.Clock(9, 0), End: models.Clock(10, 0),
				Status: models.SlotBusy},
			wantErr: apperr.Validation("", nil),
		},
		{
			name: "unknown status",
			in: booking.CreateSlotInput{DayOfWeek: models.Monday, Start: models.Clock(9, 0), End: models.Clock(10, 0),
				Status: "HOLIDAY"},
			wantErr: apperr.ErrInvalidStatus,
		},
		{
			name:    "bad day",
			in:      booking.CreateSlotInput{DayOfWeek: 7, Start: models.Clock(9, 0), End: models.Clock(10, 0)},
			wantErr: apperr.Validation("", nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			slot, err := f.engine.CreateSlot(context.Background(), f.teacher, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.teacher.ProfileID, slot.TeacherID)
			want := tt.in.Status
			if want == "" {
				want = models.SlotFree
			}
			assert.Equal(t, want, slot.Status)
		})
	}
}

func TestCreateSlot_StudentRefused(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateSlot(context.Background(), f.student, booking.CreateSlotInput{
		DayOfWeek: models.Monday, Start: models.Clock(9, 0), End: models.Clock(10, 0),
	})
	assert.ErrorIs(t, err, apperr.ErrNotATeacher)
}

func TestSetSlotStatus(t *testing.T) {
	f := newFixture(t)
	slot := f.mondayNineToTen(t)
	ctx := context.Background()

	got, err := f.engine.SetSlotStatus(ctx, f.teacher, slot.ID, models.SlotLecture)
	require.NoError(t, err)
	assert.Equal(t, models.SlotLecture, got.Status)
	assert.Equal(t, models.SlotLecture, f.slotStatus(t, slot.ID))

	_, err = f.engine.SetSlotStatus(ctx, f.teacher, slot.ID, models.SlotBusy)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	intruder := addTeacher(t, f.db, "eve@uni.edu", "eve")
	_, err = f.engine.SetSlotStatus(ctx, intruder, slot.ID, models.SlotFree)
	assert.ErrorIs(t, err, apperr.ErrNotOwner)
}

func TestSetSlotStatus_LectureSlotCannotBeApproved(t *testing.T) {
	f := newFixture(t)
	slot := f.mondayNineToTen(t)
	ctx := context.Background()
	b := f.request(t, f.student, slot, models.Clock(9, 0), models.Clock(9, 30))

	_, err := f.engine.SetSlotStatus(ctx, f.teacher, slot.ID, models.SlotLecture)
	require.NoError(t, err)

	_, err = f.engine.ApproveBooking(ctx, f.teacher, b.ID, booking.ApproveInput{})
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
	assert.Equal(t, models.BookingPending, f.bookingStatus(t, b.ID))
}

func TestSetSlotStatus_BusyIsNeverReversed(t *testing.T) {
	f := newFixture(t)
	slot := f.mondayNineToTen(t)
	ctx := context.Background()
	b := f.request(t, f.student, slot, models.Clock(9, 0), models.Clock(9, 30))
	_, err := f.engine.ApproveBooking(ctx, f.teacher, b.ID, booking.ApproveInput{})
	require.NoError(t, err)

	_, err = f.engine.SetSlotStatus(ctx, f.teacher, slot.ID, models.SlotFree)
	assert.ErrorIs(t, err, apperr.ErrSlotTaken)
	assert.Equal(t, models.SlotBusy, f.slotStatus(t, slot.ID))
}
