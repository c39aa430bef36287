// Package memstore keeps every table in process memory. It backs the
// engines in tests and in local development (STORE_DRIVER=memory).
//
// Transactions hold a single mutex for their whole duration and restore a
// snapshot on error, which gives the same all-or-nothing and serialised
// approval behaviour the postgres store gets from row locks.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/models"
)

type tables struct {
	users    map[uuid.UUID]models.User
	teachers map[uuid.UUID]models.Teacher
	students map[uuid.UUID]models.Student
	slots    map[uuid.UUID]models.TimeSlot
	bookings map[uuid.UUID]models.Booking
	tickets  map[uuid.UUID]models.ChatTicket
	messages map[uuid.UUID]models.ChatMessage
}

func newTables() tables {
	return tables{
		users:    map[uuid.UUID]models.User{},
		teachers: map[uuid.UUID]models.Teacher{},
		students: map[uuid.UUID]models.Student{},
		slots:    map[uuid.UUID]models.TimeSlot{},
		bookings: map[uuid.UUID]models.Booking{},
		tickets:  map[uuid.UUID]models.ChatTicket{},
		messages: map[uuid.UUID]models.ChatMessage{},
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.teachers {
		c.teachers[k] = v
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.slots {
		c.slots[k] = v
	}
	for k, v := range t.bookings {
		c.bookings[k] = v
	}
	for k, v := range t.tickets {
		c.tickets[k] = v
	}
	for k, v := range t.messages {
		c.messages[k] = v
	}
	return c
}

type DB struct {
	mu   sync.Mutex
	t    tables
	last time.Time
}

func New() *DB {
	return &DB{t: newTables()}
}

// Bookings returns the booking.Store view of db.
func (db *DB) Bookings() booking.Store { return &bookingStore{db: db} }

// Chat returns the chat.Store view of db.
func (db *DB) Chat() chat.Store { return &chatStore{db: db} }

// now is strictly increasing so created_at/updated_at orderings are total.
func (db *DB) now() time.Time {
	n := time.Now().UTC()
	if !n.After(db.last) {
		n = db.last.Add(time.Microsecond)
	}
	db.last = n
	return n
}

// run executes fn under the store lock unless the caller already holds it.
func (db *DB) run(inTx bool, fn func() error) error {
	if !inTx {
		db.mu.Lock()
		defer db.mu.Unlock()
	}
	return fn()
}

func (db *DB) transaction(ctx context.Context, inTx bool, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inTx {
		return fn()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	snapshot := db.t.clone()
	if err := fn(); err != nil {
		db.t = snapshot
		return err
	}
	return nil
}

// CreateUser inserts u together with its teacher or student profile.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	return db.transaction(ctx, false, func() error {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		for _, existing := range db.t.users {
			if strings.EqualFold(existing.Email, email) {
				return apperr.ErrEmailTaken
			}
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		now := db.now()
		u.Email = email
		u.CreatedAt, u.UpdatedAt = now, now

		switch {
		case u.Teacher != nil:
			tp := *u.Teacher
			if tp.ID == uuid.Nil {
				tp.ID = uuid.New()
			}
			tp.UserID = u.ID
			tp.CreatedAt = now
			tp.User = nil
			db.t.teachers[tp.ID] = tp
			u.Teacher.ID, u.Teacher.UserID, u.Teacher.CreatedAt = tp.ID, tp.UserID, now
		case u.Student != nil:
			for _, s := range db.t.students {
				if s.RollNo == u.Student.RollNo {
					return apperr.New(apperr.KindConflict, "ROLL_NO_TAKEN", "Roll number is already registered")
				}
			}
			sp := *u.Student
			if sp.ID == uuid.Nil {
				sp.ID = uuid.New()
			}
			sp.UserID = u.ID
			sp.CreatedAt = now
			sp.User = nil
			db.t.students[sp.ID] = sp
			u.Student.ID, u.Student.UserID, u.Student.CreatedAt = sp.ID, sp.UserID, now
		}

		row := *u
		row.Teacher, row.Student = nil, nil
		db.t.users[u.ID] = row
		return nil
	})
}

func (db *DB) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.t.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return db.withProfile(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (db *DB) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.t.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return db.withProfile(u), nil
}

func (db *DB) withProfile(u models.User) *models.User {
	for _, t := range db.t.teachers {
		if t.UserID == u.ID {
			tp := t
			u.Teacher = &tp
		}
	}
	for _, s := range db.t.students {
		if s.UserID == u.ID {
			sp := s
			u.Student = &sp
		}
	}
	return &u
}

// ListTeachers returns the department's teachers ordered by username.
func (db *DB) ListTeachers(ctx context.Context, department string) ([]models.TeacherListing, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []models.TeacherListing{}
	for _, t := range db.t.teachers {
		if t.Department != department {
			continue
		}
		out = append(out, models.TeacherListing{
			ID:         t.ID,
			Username:   t.Username,
			Department: t.Department,
			Email:      db.t.users[t.UserID].Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// BookingParticipants resolves the names and addresses involved in a booking.
func (db *DB) BookingParticipants(ctx context.Context, bookingID uuid.UUID) (*models.ReminderTarget, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	b, ok := db.t.bookings[bookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	target := db.target(b)
	return &target, nil
}

// ApprovedBookingsOn lists approved bookings whose slot falls on day.
func (db *DB) ApprovedBookingsOn(ctx context.Context, day models.DayOfWeek) ([]models.ReminderTarget, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []models.ReminderTarget{}
	for _, b := range db.t.bookings {
		if b.Status != models.BookingApproved {
			continue
		}
		if db.t.slots[b.TimeSlotID].DayOfWeek != day {
			continue
		}
		out = append(out, db.target(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (db *DB) target(b models.Booking) models.ReminderTarget {
	s := db.t.students[b.StudentID]
	t := db.t.teachers[b.TeacherID]
	start, end := b.RequestedStartTime, b.RequestedEndTime
	if b.ApprovedStartTime != nil && b.ApprovedEndTime != nil {
		start, end = *b.ApprovedStartTime, *b.ApprovedEndTime
	}
	return models.ReminderTarget{
		BookingID:    b.ID,
		StudentName:  s.Name,
		StudentEmail: db.t.users[s.UserID].Email,
		TeacherName:  t.Username,
		TeacherEmail: db.t.users[t.UserID].Email,
		Start:        start,
		End:          end,
	}
}
