package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/models"
)

// UserStore persists accounts. Find* return gorm.ErrRecordNotFound when absent
// and preload the teacher or student profile.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type RegisterInput struct {
	Email      string
	Password   string
	Role       models.Role
	Username   string
	Department string
	Name       string
	RollNo     string
}

type Accounts struct {
	store  UserStore
	issuer *Issuer
	log    *zap.Logger
}

func NewAccounts(store UserStore, issuer *Issuer, log *zap.Logger) *Accounts {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accounts{store: store, issuer: issuer, log: log}
}

// Register creates a user together with its role profile.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Persistence("hash password", err)
	}

	u := &models.User{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: string(hashed),
		Role:     in.Role,
	}
	switch in.Role {
	case models.RoleTeacher:
		u.Teacher = &models.Teacher{Username: strings.TrimSpace(in.Username), Department: in.Department}
	case models.RoleStudent:
		u.Student = &models.Student{Name: strings.TrimSpace(in.Name), RollNo: strings.TrimSpace(in.RollNo)}
	default:
		return nil, apperr.Validation("Role must be STUDENT or TEACHER", map[string][]string{"role": {"oneof"}})
	}

	if err := a.store.CreateUser(ctx, u); err != nil {
		return nil, apperr.As(err)
	}
	a.log.Info("User registered", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return u, nil
}

// Login checks credentials and issues a session token.
func (a *Accounts) Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error) {
	u, err := a.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", time.Time{}, apperr.ErrInvalidCredential
	}
	if err != nil {
		return nil, "", time.Time{}, apperr.Persistence("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", time.Time{}, apperr.ErrInvalidCredential
	}
	token, exp, err := a.issuer.Issue(u)
	if err != nil {
		return nil, "", time.Time{}, apperr.Persistence("issue token", err)
	}
	return u, token, exp, nil
}

// Me loads the account behind p.
func (a *Accounts) Me(ctx context.Context, p *Principal) (*models.User, error) {
	if err := Require(p); err != nil {
		return nil, err
	}
	u, err := a.store.FindUserByID(ctx, p.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, apperr.Persistence("find user", err)
	}
	return u, nil
}
