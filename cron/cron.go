package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/notify"
)

// Reminder sends the day's approved appointments to the students who booked them.
type Reminder interface {
	SendReminder(t models.ReminderTarget) error
}

type Reminders struct {
	store    notify.Store
	reminder Reminder
	log      *zap.Logger
	now      func() time.Time
}

func NewReminders(store notify.Store, reminder Reminder, log *zap.Logger) *Reminders {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reminders{store: store, reminder: reminder, log: log, now: time.Now}
}

// Start schedules the reminder job with a standard five-field cron spec.
// The returned scheduler must be stopped on shutdown.
func (r *Reminders) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.Run(ctx); err != nil {
			r.log.Error("Reminder job failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add reminder job %q: %w", spec, err)
	}
	c.Start()
	r.log.Info("Reminder scheduler started", zap.String("spec", spec))
	return c, nil
}

// Run sends reminders for today's approved bookings and returns how many were sent.
func (r *Reminders) Run(ctx context.Context) (int, error) {
	today := r.now()
	targets, err := r.store.ApprovedBookingsOn(ctx, models.DayOfWeek(today.Weekday()))
	if err != nil {
		return 0, fmt.Errorf("load today's bookings: %w", err)
	}

	r.log.Info("Found bookings for reminders", zap.Int("count", len(targets)))

	sent := 0
	for _, t := range targets {
		t.Date = today
		if err := r.reminder.SendReminder(t); err != nil {
			r.log.Warn("Failed to send reminder",
				zap.String("booking_id", t.BookingID.String()), zap.Error(err))
			continue
		}
		sent++
		r.log.Debug("Sent reminder", zap.String("booking_id", t.BookingID.String()), zap.String("to", t.StudentEmail))
	}
	return sent, nil
}
