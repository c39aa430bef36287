package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/apperr"
)

// Constraint names from migrations/00001_init.sql.
const (
	constraintUserEmail       = "uq_users_email"
	constraintStudentRollNo   = "uq_students_roll_no"
	constraintOneApprovedSlot = "uq_bookings_one_approved_per_slot"
)

// mapError translates postgres failures into the application taxonomy.
// gorm.ErrRecordNotFound passes through untouched for the engines to classify.
func mapError(op string, err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case constraintUserEmail:
			return apperr.ErrEmailTaken.With(err)
		case constraintStudentRollNo:
			return apperr.New(apperr.KindConflict, "ROLL_NO_TAKEN", "Roll number is already registered").With(err)
		case constraintOneApprovedSlot:
			return apperr.ErrSlotTaken.With(err)
		}
		return apperr.New(apperr.KindConflict, "DUPLICATE", "Record already exists").With(err)
	case "23503":
		return apperr.New(apperr.KindNotFound, "REFERENCE_NOT_FOUND", "Referenced record not found").With(err)
	case "23514", "23P01", "22007", "22P02":
		return apperr.Validation("Invalid value: "+pgErr.ConstraintName, nil).With(err)
	case "40001", "40P01":
		return apperr.New(apperr.KindConflict, "CONCURRENT_UPDATE", "Concurrent update, please retry").With(err)
	}
	return apperr.Persistence(op, err)
}
