package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/models"
)

// BookingStore implements booking.Store on postgres.
type BookingStore struct {
	db *gorm.DB
}

var _ booking.Store = (*BookingStore)(nil)

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

func (s *BookingStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *BookingStore) Transaction(ctx context.Context, fn func(tx booking.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingStore{db: tx})
	})
}

func (s *BookingStore) TeacherExists(ctx context.Context, teacherID uuid.UUID) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Teacher{}).Where("id = ?", teacherID).Count(&n).Error
	return n > 0, mapError("find teacher", err)
}

func (s *BookingStore) GetTimeSlot(ctx context.Context, id uuid.UUID) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := s.conn(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, mapError("get time slot", err)
	}
	return &slot, nil
}

func (s *BookingStore) LockTimeSlot(ctx context.Context, id uuid.UUID) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&slot, "id = ?", id).Error
	if err != nil {
		return nil, mapError("lock time slot", err)
	}
	return &slot, nil
}

func (s *BookingStore) CreateTimeSlot(ctx context.Context, slot *models.TimeSlot) error {
	return mapError("create time slot", s.conn(ctx).Create(slot).Error)
}

func (s *BookingStore) UpdateTimeSlotStatus(ctx context.Context, id uuid.UUID, status models.SlotStatus) error {
	res := s.conn(ctx).Model(&models.TimeSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return mapError("update slot status", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *BookingStore) ListTeacherSchedule(ctx context.Context, teacherID uuid.UUID) ([]models.ScheduleSlot, error) {
	var slots []models.TimeSlot
	err := s.conn(ctx).
		Where("teacher_id = ?", teacherID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, mapError("list time slots", err)
	}
	if len(slots) == 0 {
		return []models.ScheduleSlot{}, nil
	}

	ids := make([]uuid.UUID, len(slots))
	for i, sl := range slots {
		ids[i] = sl.ID
	}
	var bookings []models.Booking
	err = s.conn(ctx).
		Where("time_slot_id IN ?", ids).
		Order("created_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, mapError("list slot bookings", err)
	}

	bySlot := make(map[uuid.UUID][]models.Booking, len(slots))
	for _, b := range bookings {
		bySlot[b.TimeSlotID] = append(bySlot[b.TimeSlotID], b)
	}
	out := make([]models.ScheduleSlot, len(slots))
	for i, sl := range slots {
		bs := bySlot[sl.ID]
		if bs == nil {
			bs = []models.Booking{}
		}
		out[i] = models.ScheduleSlot{TimeSlot: sl, Bookings: bs}
	}
	return out, nil
}

func (s *BookingStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	return mapError("create booking", s.conn(ctx).Create(b).Error)
}

func (s *BookingStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := s.conn(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, mapError("get booking", err)
	}
	return &b, nil
}

func (s *BookingStore) LockBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, mapError("lock booking", err)
	}
	return &b, nil
}

func (s *BookingStore) SaveBookingDecision(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = time.Now().UTC()
	res := s.conn(ctx).Model(&models.Booking{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"status":              b.Status,
			"approved_start_time": b.ApprovedStartTime,
			"approved_end_time":   b.ApprovedEndTime,
			"notes":               b.Notes,
			"updated_at":          b.UpdatedAt,
		})
	if res.Error != nil {
		return mapError("save booking", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *BookingStore) CountApprovedBookings(ctx context.Context, slotID, excludeBookingID uuid.UUID) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Booking{}).
		Where("time_slot_id = ? AND status = ? AND id <> ?", slotID, models.BookingApproved, excludeBookingID).
		Count(&n).Error
	return n, mapError("count approved bookings", err)
}

type pendingRow struct {
	models.Booking
	StudentName   string
	StudentRollNo string
	SlotDay       models.DayOfWeek
	SlotStart     models.TimeOfDay
	SlotEnd       models.TimeOfDay
}

func (s *BookingStore) ListPendingBookings(ctx context.Context, teacherID uuid.UUID) ([]models.PendingBooking, error) {
	var rows []pendingRow
	err := s.conn(ctx).
		Table("bookings AS b").
		Select(`b.*,
			st.name AS student_name, st.roll_no AS student_roll_no,
			ts.day_of_week AS slot_day, ts.start_time AS slot_start, ts.end_time AS slot_end`).
		Joins("JOIN students st ON st.id = b.student_id").
		Joins("JOIN time_slots ts ON ts.id = b.time_slot_id").
		Where("b.teacher_id = ? AND b.status = ?", teacherID, models.BookingPending).
		Order("b.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError("list pending bookings", err)
	}

	out := make([]models.PendingBooking, len(rows))
	for i, r := range rows {
		out[i] = models.PendingBooking{
			Booking:  r.Booking,
			Student:  models.StudentIdentity{Name: r.StudentName, RollNo: r.StudentRollNo},
			TimeSlot: models.SlotTime{DayOfWeek: r.SlotDay, StartTime: r.SlotStart, EndTime: r.SlotEnd},
		}
	}
	return out, nil
}

type studentBookingRow struct {
	models.Booking
	TeacherUsername   string
	TeacherDepartment string
	SlotDay           models.DayOfWeek
	SlotStart         models.TimeOfDay
	SlotEnd           models.TimeOfDay
}

func (s *BookingStore) ListStudentBookings(ctx context.Context, studentID uuid.UUID) ([]models.StudentBooking, error) {
	var rows []studentBookingRow
	err := s.conn(ctx).
		Table("bookings AS b").
		Select(`b.*,
			t.username AS teacher_username, t.department AS teacher_department,
			ts.day_of_week AS slot_day, ts.start_time AS slot_start, ts.end_time AS slot_end`).
		Joins("JOIN teachers t ON t.id = b.teacher_id").
		Joins("JOIN time_slots ts ON ts.id = b.time_slot_id").
		Where("b.student_id = ?", studentID).
		Order("b.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError("list student bookings", err)
	}

	out := make([]models.StudentBooking, len(rows))
	for i, r := range rows {
		out[i] = models.StudentBooking{
			Booking:  r.Booking,
			Teacher:  models.TeacherIdentity{Username: r.TeacherUsername, Department: r.TeacherDepartment},
			TimeSlot: models.SlotTime{DayOfWeek: r.SlotDay, StartTime: r.SlotStart, EndTime: r.SlotEnd},
		}
	}
	return out, nil
}

// BookingParticipants resolves names and addresses for notifications.
func (s *BookingStore) BookingParticipants(ctx context.Context, bookingID uuid.UUID) (*models.ReminderTarget, error) {
	var rows []models.ReminderTarget
	if err := s.reminderQuery(ctx).Where("b.id = ?", bookingID).Scan(&rows).Error; err != nil {
		return nil, mapError("load booking participants", err)
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// ApprovedBookingsOn lists approved bookings whose slot falls on day.
func (s *BookingStore) ApprovedBookingsOn(ctx context.Context, day models.DayOfWeek) ([]models.ReminderTarget, error) {
	var rows []models.ReminderTarget
	err := s.reminderQuery(ctx).
		Where("b.status = ? AND ts.day_of_week = ?", models.BookingApproved, day).
		Order("start ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError("list approved bookings", err)
	}
	return rows, nil
}

func (s *BookingStore) reminderQuery(ctx context.Context) *gorm.DB {
	return s.conn(ctx).
		Table("bookings AS b").
		Select(`b.id AS booking_id,
			st.name AS student_name, su.email AS student_email,
			t.username AS teacher_name, tu.email AS teacher_email,
			COALESCE(b.approved_start_time, b.requested_start_time) AS start,
			COALESCE(b.approved_end_time, b.requested_end_time) AS "end"`).
		Joins("JOIN students st ON st.id = b.student_id").
		Joins("JOIN users su ON su.id = st.user_id").
		Joins("JOIN teachers t ON t.id = b.teacher_id").
		Joins("JOIN users tu ON tu.id = t.user_id").
		Joins("JOIN time_slots ts ON ts.id = b.time_slot_id")
}
