// Package directory lists teachers by department for the student booking view.
package directory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/models"
)

var DefaultDepartments = []string{"CSE", "ECE", "EEE", "MECH", "CIVIL"}

type Store interface {
	// ListTeachers orders by username.
	ListTeachers(ctx context.Context, department string) ([]models.TeacherListing, error)
}

type Directory struct {
	store       Store
	departments []string
	log         *zap.Logger
}

func New(store Store, departments []string, log *zap.Logger) *Directory {
	if len(departments) == 0 {
		departments = DefaultDepartments
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{store: store, departments: departments, log: log}
}

func (d *Directory) Departments() []string {
	out := make([]string, len(d.departments))
	copy(out, d.departments)
	return out
}

// Normalize returns the canonical department code, or a validation error.
func (d *Directory) Normalize(department string) (string, error) {
	dep := strings.ToUpper(strings.TrimSpace(department))
	for _, known := range d.departments {
		if dep == known {
			return dep, nil
		}
	}
	return "", apperr.Validation("Unknown department",
		map[string][]string{"department": {"oneof " + strings.Join(d.departments, " ")}})
}

func (d *Directory) ListTeachers(ctx context.Context, department string) ([]models.TeacherListing, error) {
	dep, err := d.Normalize(department)
	if err != nil {
		return nil, err
	}
	out, err := d.store.ListTeachers(ctx, dep)
	if err != nil {
		d.log.Error("Failed to list teachers", zap.String("department", dep), zap.Error(err))
		return nil, apperr.Persistence("list teachers", err)
	}
	if out == nil {
		out = []models.TeacherListing{}
	}
	return out, nil
}
