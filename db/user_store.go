package db

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/directory"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
)

// UserStore persists accounts and serves the teacher directory.
type UserStore struct {
	db *gorm.DB
}

var (
	_ identity.UserStore = (*UserStore)(nil)
	_ directory.Store    = (*UserStore)(nil)
)

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts the user and its profile in one transaction.
func (s *UserStore) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teacher, student := u.Teacher, u.Student
		u.Teacher, u.Student = nil, nil
		defer func() { u.Teacher, u.Student = teacher, student }()

		if err := tx.Create(u).Error; err != nil {
			return err
		}
		switch {
		case teacher != nil:
			teacher.UserID = u.ID
			return tx.Create(teacher).Error
		case student != nil:
			student.UserID = u.ID
			return tx.Create(student).Error
		}
		return nil
	})
	return mapError("create user", err)
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Student").
		Where("lower(email) = lower(?)", email).
		First(&u).Error
	if err != nil {
		return nil, mapError("find user", err)
	}
	return &u, nil
}

func (s *UserStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Student").
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, mapError("find user", err)
	}
	return &u, nil
}

func (s *UserStore) ListTeachers(ctx context.Context, department string) ([]models.TeacherListing, error) {
	var out []models.TeacherListing
	err := s.db.WithContext(ctx).
		Table("teachers AS t").
		Select("t.id, t.username, t.department, u.email").
		Joins("JOIN users u ON u.id = t.user_id").
		Where("t.department = ?", department).
		Order("t.username ASC").
		Scan(&out).Error
	if err != nil {
		return nil, mapError("list teachers", err)
	}
	return out, nil
}
