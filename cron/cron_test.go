package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/memstore"
	"github.com/meinhoongagan/campus-booking/models"
)

type recorder struct {
	got  []models.ReminderTarget
	fail bool
}

func (r *recorder) SendReminder(t models.ReminderTarget) error {
	if r.fail {
		return errors.New("smtp down")
	}
	r.got = append(r.got, t)
	return nil
}

func seedApproved(t *testing.T, db *memstore.DB, day models.DayOfWeek) {
	t.Helper()
	ctx := context.Background()
	tu := &models.User{Email: "alice@uni.edu", Role: models.RoleTeacher,
		Teacher: &models.Teacher{Username: "alice", Department: "CSE"}}
	su := &models.User{Email: "sam@uni.edu", Role: models.RoleStudent,
		Student: &models.Student{Name: "Sam", RollNo: "CSE-001"}}
	require.NoError(t, db.CreateUser(ctx, tu))
	require.NoError(t, db.CreateUser(ctx, su))
	teacher := &identity.Principal{UserID: tu.ID, Role: models.RoleTeacher, ProfileID: tu.Teacher.ID}
	student := &identity.Principal{UserID: su.ID, Role: models.RoleStudent, ProfileID: su.Student.ID}

	engine := booking.NewEngine(db.Bookings(), nil)
	for _, d := range []models.DayOfWeek{day, (day + 1) % 7} {
		slot, err := engine.CreateSlot(ctx, teacher, booking.CreateSlotInput{
			DayOfWeek: d, Start: models.Clock(10, 0), End: models.Clock(11, 0),
		})
		require.NoError(t, err)
		b, err := engine.CreateBooking(ctx, student, booking.CreateBookingInput{
			TeacherID: teacher.ProfileID, TimeSlotID: slot.ID, Reason: "Review",
			Start: models.Clock(10, 0), End: models.Clock(10, 30),
		})
		require.NoError(t, err)
		_, err = engine.ApproveBooking(ctx, teacher, b.ID, booking.ApproveInput{})
		require.NoError(t, err)
	}
}

func TestReminders_Run(t *testing.T) {
	db := memstore.New()
	monday := time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC)
	seedApproved(t, db, models.Monday)

	rec := &recorder{}
	r := NewReminders(db, rec, nil)
	r.now = func() time.Time { return monday }

	n, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, rec.got, 1)
	assert.Equal(t, "sam@uni.edu", rec.got[0].StudentEmail)
	assert.Equal(t, "10:00", rec.got[0].Start.String())
	assert.Equal(t, monday, rec.got[0].Date)
}

func TestReminders_SendFailureIsSkipped(t *testing.T) {
	db := memstore.New()
	seedApproved(t, db, models.Monday)

	r := NewReminders(db, &recorder{fail: true}, nil)
	r.now = func() time.Time { return time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC) }

	n, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReminders_StartRejectsBadSpec(t *testing.T) {
	r := NewReminders(memstore.New(), &recorder{}, nil)
	_, err := r.Start("every morning")
	assert.Error(t, err)
}
