package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null"`
	Teacher   *Teacher  `json:"teacher,omitempty" gorm:"foreignKey:UserID"`
	Student   *Student  `json:"student,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ProfileID returns the id of the teacher or student profile owned by u.
func (u *User) ProfileID() uuid.UUID {
	switch {
	case u.Role == RoleTeacher && u.Teacher != nil:
		return u.Teacher.ID
	case u.Role == RoleStudent && u.Student != nil:
		return u.Student.ID
	}
	return uuid.Nil
}

type Teacher struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	User       *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Username   string     `json:"username" gorm:"not null"`
	Department string     `json:"department" gorm:"index;not null"`
	TimeSlots  []TimeSlot `json:"time_slots,omitempty" gorm:"foreignKey:TeacherID"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (t *Teacher) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Student struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Name      string    `json:"name" gorm:"not null"`
	RollNo    string    `json:"rollno" gorm:"column:roll_no;uniqueIndex;not null"`
	Bookings  []Booking `json:"bookings,omitempty" gorm:"foreignKey:StudentID"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TeacherListing is a directory entry for the department listing.
type TeacherListing struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
}
