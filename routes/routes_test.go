package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/directory"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/memstore"
	"github.com/meinhoongagan/campus-booking/metrics"
	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/redis"
	"github.com/meinhoongagan/campus-booking/routes"
)

const secret = "test-secret"

type envelope struct {
	Success   bool                `json:"success"`
	Data      json.RawMessage     `json:"data"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code"`
	Fields    map[string][]string `json:"fields"`
}

type account struct {
	user  *models.User
	token string
}

func (a account) profileID() string { return a.user.ProfileID().String() }

type fixture struct {
	t        *testing.T
	app      *fiber.App
	accounts *identity.Accounts
	issuer   *identity.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memstore.New()
	m := metrics.New()
	hub := redis.NewHub(nil)
	issuer := identity.NewIssuer(secret, time.Hour)
	accounts := identity.NewAccounts(mem, issuer, nil)

	app := routes.NewApp(routes.Deps{
		Accounts:  accounts,
		Directory: directory.New(mem, directory.DefaultDepartments, nil),
		Bookings:  booking.NewEngine(mem.Bookings(), nil, booking.WithCache(hub), booking.WithMetrics(m)),
		Chat:      chat.NewEngine(mem.Chat(), nil, m),
		Hub:       hub,
		Metrics:   m,
		JWTSecret: []byte(secret),
	})
	return &fixture{t: t, app: app, accounts: accounts, issuer: issuer}
}

func (f *fixture) register(in identity.RegisterInput) account {
	f.t.Helper()
	in.Password = "password123"
	u, err := f.accounts.Register(context.Background(), in)
	require.NoError(f.t, err)
	token, _, err := f.issuer.Issue(u)
	require.NoError(f.t, err)
	return account{user: u, token: token}
}

func (f *fixture) teacher(username string) account {
	return f.register(identity.RegisterInput{
		Email: username + "@university.edu", Role: models.RoleTeacher, Username: username, Department: "CSE",
	})
}

func (f *fixture) student(name, rollNo string) account {
	return f.register(identity.RegisterInput{
		Email: rollNo + "@university.edu", Role: models.RoleStudent, Name: name, RollNo: rollNo,
	})
}

func (f *fixture) do(method, path, token string, body any) (int, envelope) {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)
	if len(raw) > 0 {
		require.NoError(f.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

func (f *fixture) createSlot(teacher account, day, from, to int) models.TimeSlot {
	f.t.Helper()
	status, env := f.do(http.MethodPost, "/api/slots", teacher.token, map[string]any{
		"day_of_week": day,
		"start_time":  clock(from),
		"end_time":    clock(to),
	})
	require.Equal(f.t, http.StatusCreated, status, env.Message)
	return decode[models.TimeSlot](f.t, env)
}

func (f *fixture) requestBooking(student account, slot models.TimeSlot, from, to string) (int, envelope) {
	return f.do(http.MethodPost, "/api/bookings", student.token, map[string]any{
		"teacher_id":           slot.TeacherID,
		"time_slot_id":         slot.ID,
		"reason":               "Project review",
		"requested_start_time": from,
		"requested_end_time":   to,
	})
}

func clock(hour int) string {
	return models.Clock(hour, 0).String()
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(http.MethodGet, "/api/bookings/mine", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.ErrorCode)

	status, _ = f.do(http.MethodGet, "/api/bookings/mine", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBookingLifecycle(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("prof_smith")
	alice := f.student("Alice", "CS001")
	bob := f.student("Bob", "CS002")

	slot := f.createSlot(teacher, int(models.Monday), 9, 11)
	assert.Equal(t, models.SlotFree, slot.Status)

	status, env := f.requestBooking(alice, slot, "09:00", "10:00")
	require.Equal(t, http.StatusCreated, status, env.Message)
	first := decode[models.Booking](t, env)
	assert.Equal(t, models.BookingPending, first.Status)

	status, env = f.requestBooking(bob, slot, "09:30", "10:30")
	require.Equal(t, http.StatusCreated, status, env.Message)
	second := decode[models.Booking](t, env)

	status, env = f.requestBooking(bob, slot, "08:30", "10:00")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "OUT_OF_BOUNDS", env.ErrorCode)

	status, env = f.do(http.MethodGet, "/api/teachers/"+teacher.profileID()+"/bookings/pending", teacher.token, nil)
	require.Equal(t, http.StatusOK, status)
	pending := decode[[]models.PendingBooking](t, env)
	require.Len(t, pending, 2)
	assert.Equal(t, "Bob", pending[0].Student.Name, "newest first")

	status, env = f.do(http.MethodPost, "/api/bookings/"+first.ID.String()+"/approve", teacher.token,
		map[string]any{"notes": "See you then"})
	require.Equal(t, http.StatusOK, status, env.Message)
	approved := decode[models.Booking](t, env)
	assert.Equal(t, models.BookingApproved, approved.Status)
	require.NotNil(t, approved.ApprovedStartTime)
	assert.Equal(t, "09:00", approved.ApprovedStartTime.String())

	status, env = f.do(http.MethodPost, "/api/bookings/"+second.ID.String()+"/approve", teacher.token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "SLOT_TAKEN", env.ErrorCode)

	status, env = f.do(http.MethodPost, "/api/bookings/"+first.ID.String()+"/reject", teacher.token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "BOOKING_DECIDED", env.ErrorCode)

	status, env = f.do(http.MethodGet, "/api/teachers/"+teacher.profileID()+"/schedule", "", nil)
	require.Equal(t, http.StatusOK, status)
	var schedule struct {
		Slots []models.ScheduleSlot `json:"slots"`
		Grid  booking.Grid          `json:"grid"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &schedule))
	require.Len(t, schedule.Slots, 1)
	assert.Equal(t, models.SlotBusy, schedule.Slots[0].Status)
	assert.Len(t, schedule.Slots[0].Bookings, 2)
	require.Len(t, schedule.Grid.Rows, 2)
	require.NotNil(t, schedule.Grid.Rows[0].Cells[models.Monday])
	assert.Equal(t, models.SlotBusy, schedule.Grid.Rows[0].Cells[models.Monday].Status)

	status, env = f.do(http.MethodGet, "/api/bookings/mine", alice.token, nil)
	require.Equal(t, http.StatusOK, status)
	mine := decode[[]models.StudentBooking](t, env)
	require.Len(t, mine, 1)
	assert.Equal(t, models.BookingApproved, mine[0].Status)
	assert.Equal(t, "prof_smith", mine[0].Teacher.Username)
}

func TestRoleChecks(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("prof_smith")
	other := f.teacher("dr_jones")
	alice := f.student("Alice", "CS001")
	slot := f.createSlot(teacher, int(models.Tuesday), 13, 14)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{
			name: "student cannot create slots", method: http.MethodPost, path: "/api/slots", token: alice.token,
			body:   map[string]any{"day_of_week": 1, "start_time": "09:00", "end_time": "10:00"},
			status: http.StatusForbidden, code: "NOT_A_TEACHER",
		},
		{
			name: "teacher cannot book", method: http.MethodPost, path: "/api/bookings", token: teacher.token,
			body: map[string]any{
				"teacher_id": slot.TeacherID, "time_slot_id": slot.ID, "reason": "x",
				"requested_start_time": "13:00", "requested_end_time": "14:00",
			},
			status: http.StatusForbidden, code: "NOT_A_STUDENT",
		},
		{
			name: "other teacher's pending list", method: http.MethodGet, token: other.token,
			path:   "/api/teachers/" + teacher.profileID() + "/bookings/pending",
			status: http.StatusForbidden, code: "NOT_OWNER",
		},
		{
			name: "other teacher's slot", method: http.MethodPatch, token: other.token,
			path:   "/api/slots/" + slot.ID.String() + "/status",
			body:   map[string]any{"status": "LECTURE"},
			status: http.StatusForbidden, code: "NOT_OWNER",
		},
		{
			name: "manual BUSY", method: http.MethodPatch, token: teacher.token,
			path:   "/api/slots/" + slot.ID.String() + "/status",
			body:   map[string]any{"status": "BUSY"},
			status: http.StatusUnprocessableEntity, code: "INVALID_INPUT",
		},
		{
			name: "malformed id", method: http.MethodPost, token: teacher.token,
			path:   "/api/bookings/not-a-uuid/approve",
			status: http.StatusUnprocessableEntity, code: "INVALID_INPUT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, status, env.Message)
			assert.Equal(t, tt.code, env.ErrorCode)
		})
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "Smith@University.edu", "password": "password123", "role": "TEACHER",
		"username": "prof_smith", "department": "cse",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	created := decode[models.User](t, env)
	assert.Equal(t, "smith@university.edu", created.Email)
	require.NotNil(t, created.Teacher)
	assert.Equal(t, "CSE", created.Teacher.Department)

	status, env = f.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "smith@university.edu", "password": "password123", "role": "TEACHER",
		"username": "someone", "department": "CSE",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EMAIL_TAKEN", env.ErrorCode)

	status, env = f.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "bad", "password": "short", "role": "STUDENT",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Fields, "email")
	assert.Contains(t, env.Fields, "password")
	assert.Contains(t, env.Fields, "name")

	status, env = f.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "smith@university.edu", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", env.ErrorCode)

	raw, err := json.Marshal(map[string]any{"email": "smith@university.edu", "password": "password123"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	require.NotNil(t, session, "login sets the session cookie")
	assert.True(t, session.HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: session.Value})
	resp, err = f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "the cookie authenticates")
}

func TestTeacherDirectory(t *testing.T) {
	f := newFixture(t)
	f.teacher("zed")
	f.teacher("amy")

	status, env := f.do(http.MethodGet, "/api/teachers?department=cse", "", nil)
	require.Equal(t, http.StatusOK, status)
	listing := decode[[]models.TeacherListing](t, env)
	require.Len(t, listing, 2)
	assert.Equal(t, "amy", listing[0].Username)
	assert.Equal(t, "amy@university.edu", listing[0].Email)

	status, env = f.do(http.MethodGet, "/api/teachers?department=LAW", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Fields, "department")

	status, env = f.do(http.MethodGet, "/api/teachers?department=ECE", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestTicketConversation(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("prof_smith")
	alice := f.student("Alice", "CS001")
	bob := f.student("Bob", "CS002")

	status, env := f.do(http.MethodPost, "/api/tickets", alice.token, map[string]any{"teacher_id": teacher.profileID()})
	require.Equal(t, http.StatusCreated, status, env.Message)
	ticket := decode[models.ChatTicket](t, env)
	assert.Equal(t, models.TicketOpen, ticket.Status)
	messagesPath := "/api/tickets/" + ticket.ID.String() + "/messages"

	status, env = f.do(http.MethodPost, messagesPath, alice.token, map[string]any{"content": "  Hello professor  "})
	require.Equal(t, http.StatusCreated, status, env.Message)
	msg := decode[models.ChatMessage](t, env)
	assert.Equal(t, "Hello professor", msg.Content)
	assert.Equal(t, alice.user.ID, msg.SenderID)
	assert.Equal(t, models.RoleStudent, msg.SenderRole)

	status, _ = f.do(http.MethodPost, messagesPath, teacher.token, map[string]any{"content": "Hi Alice"})
	require.Equal(t, http.StatusCreated, status)

	status, env = f.do(http.MethodGet, messagesPath, bob.token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_A_PARTY", env.ErrorCode)

	status, env = f.do(http.MethodGet, messagesPath, teacher.token, nil)
	require.Equal(t, http.StatusOK, status)
	thread := decode[[]models.MessageView](t, env)
	require.Len(t, thread, 2)
	assert.Equal(t, "Alice", thread[0].Sender.DisplayName)
	assert.Equal(t, "prof_smith", thread[1].Sender.DisplayName)

	status, env = f.do(http.MethodGet, "/api/teachers/"+teacher.profileID()+"/tickets", teacher.token, nil)
	require.Equal(t, http.StatusOK, status)
	inbox := decode[[]models.TicketPreview](t, env)
	require.Len(t, inbox, 1)
	require.NotNil(t, inbox[0].LatestMessage)
	assert.Equal(t, "Hi Alice", inbox[0].LatestMessage.Content)

	statusPath := "/api/tickets/" + ticket.ID.String() + "/status"
	status, env = f.do(http.MethodPatch, statusPath, alice.token, map[string]any{"status": "CLOSED"})
	assert.Equal(t, http.StatusForbidden, status, "only the teacher closes")

	status, env = f.do(http.MethodPatch, statusPath, teacher.token, map[string]any{"status": "CLOSED"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = f.do(http.MethodPost, messagesPath, alice.token, map[string]any{"content": "One more thing"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "TICKET_CLOSED", env.ErrorCode)

	status, env = f.do(http.MethodGet, "/api/tickets/mine", alice.token, nil)
	require.Equal(t, http.StatusOK, status)
	mine := decode[[]models.TicketPreview](t, env)
	require.Len(t, mine, 1)
	assert.Equal(t, models.TicketClosed, mine[0].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/health", "", nil)

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "campus_booking_http_request_duration_seconds")
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	status, env := f.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ROUTE_NOT_FOUND", env.ErrorCode)
}

func TestAppHasNoWriteDeadline(t *testing.T) {
	f := newFixture(t)
	// A write deadline would end /api/events streams mid-connection.
	assert.Zero(t, f.app.Config().WriteTimeout)
	assert.Equal(t, 15*time.Second, f.app.Config().ReadTimeout)
}
