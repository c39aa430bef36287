package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/campus-booking/apperr"
)

func send(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return err })

	resp, terr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, terr)
	defer resp.Body.Close()
	raw, rerr := io.ReadAll(resp.Body)
	require.NoError(t, rerr)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestSendError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"},
		{"forbidden", apperr.ErrNotAStudent, http.StatusForbidden, "NOT_A_STUDENT", apperr.ErrNotAStudent.Message},
		{"not found", apperr.ErrSlotNotFound, http.StatusNotFound, "SLOT_NOT_FOUND", "Time slot not found"},
		{"validation", apperr.ErrOutOfBounds, http.StatusUnprocessableEntity, "OUT_OF_BOUNDS", apperr.ErrOutOfBounds.Message},
		{"conflict", apperr.ErrSlotTaken, http.StatusConflict, "SLOT_TAKEN", apperr.ErrSlotTaken.Message},
		{"persistence hides cause", apperr.Persistence("save booking", errors.New("pq: secret detail")),
			http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
		{"fiber error", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method Not Allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := send(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.ErrorCode)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestSendError_ValidationFields(t *testing.T) {
	_, body := send(t, apperr.Validation("Invalid request", map[string][]string{"reason": {"required"}}))
	assert.Equal(t, map[string][]string{"reason": {"required"}}, body.Fields)
}

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"required,max=5"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Email: "a@b.co", Reason: "ok"}))

	err := ValidateStruct(sample{Email: "nope", Reason: "too long"})
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, []string{"email"}, ae.Fields["email"])
	assert.Equal(t, []string{"max"}, ae.Fields["reason"])
}
