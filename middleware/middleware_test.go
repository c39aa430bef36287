package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
)

func TestProtected(t *testing.T) {
	secret := "test-secret"
	issuer := identity.NewIssuer(secret, time.Hour)
	user := &models.User{
		ID:      uuid.New(),
		Email:   "t@university.edu",
		Role:    models.RoleTeacher,
		Teacher: &models.Teacher{ID: uuid.New()},
	}
	token, _, err := issuer.Issue(user)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", Protected([]byte(secret), zap.NewNop()), RequireRole(models.RoleTeacher), func(c *fiber.Ctx) error {
		p, err := identity.FromContext(c)
		if err != nil {
			return err
		}
		return c.SendString(p.ProfileID.String())
	})

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{name: "bearer", header: "Bearer " + token, status: http.StatusOK},
		{name: "cookie", cookie: token, status: http.StatusOK},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		identity.Store(c, &identity.Principal{UserID: uuid.New(), Role: models.RoleStudent, ProfileID: uuid.New()})
		return c.Next()
	}, RequireRole(models.RoleTeacher), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(Timeout(time.Second))
	app.Get("/", func(c *fiber.Ctx) error {
		if _, ok := c.UserContext().Deadline(); !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLoggerWritesErrorResponse(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(), Logger(zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error {
		return fiber.ErrTeapot
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestLoginRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimiter(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	var last int
	for i := 0; i < 6; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
