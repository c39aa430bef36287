package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/models"
)

type bookingStore struct {
	db   *DB
	inTx bool
}

var _ booking.Store = (*bookingStore)(nil)

func (s *bookingStore) Transaction(ctx context.Context, fn func(tx booking.Store) error) error {
	return s.db.transaction(ctx, s.inTx, func() error {
		return fn(&bookingStore{db: s.db, inTx: true})
	})
}

func (s *bookingStore) TeacherExists(ctx context.Context, teacherID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.run(s.inTx, func() error {
		_, ok = s.db.t.teachers[teacherID]
		return nil
	})
	return ok, err
}

func (s *bookingStore) GetTimeSlot(ctx context.Context, id uuid.UUID) (*models.TimeSlot, error) {
	var out *models.TimeSlot
	err := s.db.run(s.inTx, func() error {
		slot, ok := s.db.t.slots[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &slot
		return nil
	})
	return out, err
}

// LockTimeSlot is GetTimeSlot; the transaction already holds the store lock.
func (s *bookingStore) LockTimeSlot(ctx context.Context, id uuid.UUID) (*models.TimeSlot, error) {
	return s.GetTimeSlot(ctx, id)
}

func (s *bookingStore) CreateTimeSlot(ctx context.Context, slot *models.TimeSlot) error {
	return s.db.run(s.inTx, func() error {
		if _, ok := s.db.t.teachers[slot.TeacherID]; !ok {
			return gorm.ErrRecordNotFound
		}
		if slot.ID == uuid.Nil {
			slot.ID = uuid.New()
		}
		if slot.Status == "" {
			slot.Status = models.SlotFree
		}
		now := s.db.now()
		slot.CreatedAt, slot.UpdatedAt = now, now
		s.db.t.slots[slot.ID] = *slot
		return nil
	})
}

func (s *bookingStore) UpdateTimeSlotStatus(ctx context.Context, id uuid.UUID, status models.SlotStatus) error {
	return s.db.run(s.inTx, func() error {
		slot, ok := s.db.t.slots[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		slot.Status = status
		slot.UpdatedAt = s.db.now()
		s.db.t.slots[id] = slot
		return nil
	})
}

func (s *bookingStore) ListTeacherSchedule(ctx context.Context, teacherID uuid.UUID) ([]models.ScheduleSlot, error) {
	out := []models.ScheduleSlot{}
	err := s.db.run(s.inTx, func() error {
		for _, slot := range s.db.t.slots {
			if slot.TeacherID != teacherID {
				continue
			}
			ss := models.ScheduleSlot{TimeSlot: slot, Bookings: []models.Booking{}}
			for _, b := range s.db.t.bookings {
				if b.TimeSlotID == slot.ID {
					ss.Bookings = append(ss.Bookings, b)
				}
			}
			sort.Slice(ss.Bookings, func(i, j int) bool {
				return ss.Bookings[i].CreatedAt.Before(ss.Bookings[j].CreatedAt)
			})
			out = append(out, ss)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, err
}

func (s *bookingStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	return s.db.run(s.inTx, func() error {
		if _, ok := s.db.t.slots[b.TimeSlotID]; !ok {
			return gorm.ErrRecordNotFound
		}
		if _, ok := s.db.t.students[b.StudentID]; !ok {
			return gorm.ErrRecordNotFound
		}
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.Status == "" {
			b.Status = models.BookingPending
		}
		now := s.db.now()
		b.CreatedAt, b.UpdatedAt = now, now
		s.db.t.bookings[b.ID] = *b
		return nil
	})
}

func (s *bookingStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var out *models.Booking
	err := s.db.run(s.inTx, func() error {
		b, ok := s.db.t.bookings[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (s *bookingStore) LockBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.GetBooking(ctx, id)
}

func (s *bookingStore) SaveBookingDecision(ctx context.Context, b *models.Booking) error {
	return s.db.run(s.inTx, func() error {
		row, ok := s.db.t.bookings[b.ID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		row.Status = b.Status
		row.ApprovedStartTime = b.ApprovedStartTime
		row.ApprovedEndTime = b.ApprovedEndTime
		row.Notes = b.Notes
		row.UpdatedAt = s.db.now()
		s.db.t.bookings[b.ID] = row
		b.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (s *bookingStore) CountApprovedBookings(ctx context.Context, slotID, excludeBookingID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.run(s.inTx, func() error {
		for _, b := range s.db.t.bookings {
			if b.TimeSlotID == slotID && b.ID != excludeBookingID && b.Status == models.BookingApproved {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *bookingStore) ListPendingBookings(ctx context.Context, teacherID uuid.UUID) ([]models.PendingBooking, error) {
	out := []models.PendingBooking{}
	err := s.db.run(s.inTx, func() error {
		for _, b := range s.db.t.bookings {
			if b.TeacherID != teacherID || b.Status != models.BookingPending {
				continue
			}
			st := s.db.t.students[b.StudentID]
			slot := s.db.t.slots[b.TimeSlotID]
			out = append(out, models.PendingBooking{
				Booking:  b,
				Student:  models.StudentIdentity{Name: st.Name, RollNo: st.RollNo},
				TimeSlot: slotTime(slot),
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (s *bookingStore) ListStudentBookings(ctx context.Context, studentID uuid.UUID) ([]models.StudentBooking, error) {
	out := []models.StudentBooking{}
	err := s.db.run(s.inTx, func() error {
		for _, b := range s.db.t.bookings {
			if b.StudentID != studentID {
				continue
			}
			t := s.db.t.teachers[b.TeacherID]
			slot := s.db.t.slots[b.TimeSlotID]
			out = append(out, models.StudentBooking{
				Booking:  b,
				Teacher:  models.TeacherIdentity{Username: t.Username, Department: t.Department},
				TimeSlot: slotTime(slot),
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func slotTime(slot models.TimeSlot) models.SlotTime {
	return models.SlotTime{DayOfWeek: slot.DayOfWeek, StartTime: slot.StartTime, EndTime: slot.EndTime}
}
