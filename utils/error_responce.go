package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/campus-booking/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code"`
	Fields    map[string][]string `json:"fields,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindValidation:
		return fiber.StatusUnprocessableEntity
	case apperr.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// SendError writes err as an ErrorResponse. Persistence failures never leak
// their cause to the client.
func SendError(c *fiber.Ctx, err error) error {
	e := apperr.As(err)
	body := ErrorResponse{
		Message:   e.Message,
		ErrorCode: e.Code,
		Fields:    e.Fields,
	}
	if e.Kind == apperr.KindPersistence {
		body.Message = "Internal server error"
		body.ErrorCode = "INTERNAL_ERROR"
	}
	return c.Status(StatusFor(e.Kind)).JSON(body)
}

// ErrorHandler is installed as fiber's app-wide error handler so errors
// returned by handlers and fiber itself share one envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Message:   fe.Message,
			ErrorCode: fiberCode(fe.Code),
		})
	}
	return SendError(c, err)
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "ROUTE_NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= fiber.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "BAD_REQUEST"
}
