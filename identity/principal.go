// Package identity resolves who is calling. Every mutating engine operation
// takes a *Principal; a nil principal is treated as unauthenticated.
package identity

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/models"
)

const localsKey = "principal"

type Principal struct {
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	ProfileID uuid.UUID   `json:"profile_id"`
}

func (p *Principal) IsStudent() bool {
	return p != nil && p.Role == models.RoleStudent && p.ProfileID != uuid.Nil
}

func (p *Principal) IsTeacher() bool {
	return p != nil && p.Role == models.RoleTeacher && p.ProfileID != uuid.Nil
}

// Require returns ErrUnauthorized when no principal was resolved.
func Require(p *Principal) error {
	if p == nil || p.UserID == uuid.Nil {
		return apperr.ErrUnauthorized
	}
	return nil
}

// RequireTeacher checks that p is the teacher with the given profile id.
func RequireTeacher(p *Principal, teacherID uuid.UUID) error {
	if err := Require(p); err != nil {
		return err
	}
	if !p.IsTeacher() {
		return apperr.ErrNotATeacher
	}
	if p.ProfileID != teacherID {
		return apperr.ErrNotOwner
	}
	return nil
}

// Store attaches p to the request.
func Store(c *fiber.Ctx, p *Principal) {
	c.Locals(localsKey, p)
}

// FromContext resolves the principal attached by the auth middleware.
func FromContext(c *fiber.Ctx) (*Principal, error) {
	p, ok := c.Locals(localsKey).(*Principal)
	if !ok || p == nil {
		return nil, apperr.ErrUnauthorized
	}
	return p, nil
}
