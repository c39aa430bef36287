// Package apperr defines the typed failures returned by the booking and chat engines.
// Callers branch on Kind instead of parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindConflict     Kind = "CONFLICT"
	KindPersistence  Kind = "PERSISTENCE_ERROR"
)

// Error is a classified failure. Code names the specific condition
// (e.g. "OUT_OF_BOUNDS") and is stable across releases.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so sentinels work with errors.Is even after
// they have been re-created with extra context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// With returns a copy of e wrapping cause.
func (e *Error) With(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// Withf returns a copy of e with a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func Validation(msg string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: msg, Fields: fields}
}

func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Code: "PERSISTENCE_FAILED", Message: op, Err: err}
}

// KindOf reports the kind of err, treating unclassified errors as persistence failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// As unwraps err into an *Error, classifying unknown errors as persistence failures.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Persistence("internal error", err)
}

var (
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "Unauthorized")
	ErrForbidden    = New(KindForbidden, "FORBIDDEN", "You are not allowed to perform this action")

	ErrNotAStudent = New(KindForbidden, "NOT_A_STUDENT", "Only students can book time slots")
	ErrNotATeacher = New(KindForbidden, "NOT_A_TEACHER", "Only teachers can perform this action")
	ErrNotOwner    = New(KindForbidden, "NOT_OWNER", "You can only manage your own schedule")
	ErrNotAParty   = New(KindForbidden, "NOT_A_PARTY", "You are not a participant of this ticket")

	ErrTeacherNotFound = New(KindNotFound, "TEACHER_NOT_FOUND", "Teacher not found")
	ErrStudentNotFound = New(KindNotFound, "STUDENT_NOT_FOUND", "Student not found")
	ErrSlotNotFound    = New(KindNotFound, "SLOT_NOT_FOUND", "Time slot not found")
	ErrBookingNotFound = New(KindNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	ErrTicketNotFound  = New(KindNotFound, "TICKET_NOT_FOUND", "Ticket not found")

	ErrOutOfBounds   = New(KindValidation, "OUT_OF_BOUNDS", "Requested time is outside the slot")
	ErrInvalidRange  = New(KindValidation, "INVALID_RANGE", "Start time must be before end time")
	ErrInvalidStatus = New(KindValidation, "INVALID_STATUS", "Unknown status")

	ErrBookingDecided    = New(KindConflict, "BOOKING_DECIDED", "Booking has already been decided")
	ErrSlotTaken         = New(KindConflict, "SLOT_TAKEN", "Time slot already has an approved booking")
	ErrSlotUnavailable   = New(KindConflict, "SLOT_UNAVAILABLE", "Time slot is not free")
	ErrTicketClosed      = New(KindConflict, "TICKET_CLOSED", "Ticket is closed")
	ErrEmailTaken        = New(KindConflict, "EMAIL_TAKEN", "User with this email already exists")
	ErrInvalidCredential = New(KindUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
)
