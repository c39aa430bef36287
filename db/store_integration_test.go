package db_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/config"
	"github.com/meinhoongagan/campus-booking/db"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
)

// openTestDB migrates the database at DATABASE_URL, skipping the test when it is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	cfg := &config.Config{DatabaseURL: url, StoreDriver: config.DriverPostgres}
	gdb, err := db.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })
	require.NoError(t, db.Migrate(ctx, gdb, zap.NewNop()))
	return gdb
}

// Every run uses fresh accounts so the tests can share one database.
func createUser(t *testing.T, users *db.UserStore, u *models.User) *identity.Principal {
	t.Helper()
	u.Email = uuid.NewString() + "@university.edu"
	u.Password = "x"
	require.NoError(t, users.CreateUser(context.Background(), u))
	return &identity.Principal{UserID: u.ID, Email: u.Email, Role: u.Role, ProfileID: u.ProfileID()}
}

func teacherUser() *models.User {
	return &models.User{Role: models.RoleTeacher,
		Teacher: &models.Teacher{Username: "t-" + uuid.NewString()[:8], Department: "CSE"}}
}

func studentUser(name string) *models.User {
	return &models.User{Role: models.RoleStudent,
		Student: &models.Student{Name: name, RollNo: "R-" + uuid.NewString()[:8]}}
}

func TestPostgres_PendingBookingsNewestFirst(t *testing.T) {
	gdb := openTestDB(t)
	users := db.NewUserStore(gdb)
	engine := booking.NewEngine(db.NewBookingStore(gdb), nil)
	ctx := context.Background()

	teacher := createUser(t, users, teacherUser())
	first := createUser(t, users, studentUser("First"))
	second := createUser(t, users, studentUser("Second"))

	slot, err := engine.CreateSlot(ctx, teacher, booking.CreateSlotInput{
		DayOfWeek: models.Thursday, Start: models.Clock(9, 0), End: models.Clock(10, 0),
	})
	require.NoError(t, err)
	request := func(p *identity.Principal, from, to int) *models.Booking {
		b, err := engine.CreateBooking(ctx, p, booking.CreateBookingInput{
			TeacherID: teacher.ProfileID, TimeSlotID: slot.ID, Reason: "Review",
			Start: models.Clock(9, from), End: models.Clock(9, to),
		})
		require.NoError(t, err)
		return b
	}
	older := request(first, 0, 20)
	newer := request(second, 30, 50)

	pending, err := engine.GetPendingBookings(ctx, teacher, teacher.ProfileID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, newer.ID, pending[0].ID)
	assert.Equal(t, "Second", pending[0].Student.Name)
	assert.Equal(t, older.ID, pending[1].ID)
	assert.Equal(t, models.Thursday, pending[1].TimeSlot.DayOfWeek)
	assert.Equal(t, "09:00", pending[1].TimeSlot.StartTime.String())

	_, err = engine.ApproveBooking(ctx, teacher, older.ID, booking.ApproveInput{})
	require.NoError(t, err)

	pending, err = engine.GetPendingBookings(ctx, teacher, teacher.ProfileID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, newer.ID, pending[0].ID)

	schedule, err := engine.GetTeacherSchedule(ctx, teacher.ProfileID)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, models.SlotBusy, schedule[0].Status)
	assert.Len(t, schedule[0].Bookings, 2)

	mine, err := engine.GetStudentBookings(ctx, first)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.BookingApproved, mine[0].Status)
	assert.Equal(t, "CSE", mine[0].Teacher.Department)
}

func TestPostgres_TicketPreviewCarriesLatestMessageOnly(t *testing.T) {
	gdb := openTestDB(t)
	users := db.NewUserStore(gdb)
	engine := chat.NewEngine(db.NewChatStore(gdb), nil, nil)
	ctx := context.Background()

	teacher := createUser(t, users, teacherUser())
	student := createUser(t, users, studentUser("Sam"))

	ticket, err := engine.CreateTicket(ctx, student, student.ProfileID, teacher.ProfileID)
	require.NoError(t, err)
	_, err = engine.SendMessage(ctx, student, ticket.ID, "first question")
	require.NoError(t, err)
	_, err = engine.SendMessage(ctx, teacher, ticket.ID, "latest answer")
	require.NoError(t, err)

	previews, err := engine.GetTeacherTickets(ctx, teacher, teacher.ProfileID)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, "Sam", previews[0].Student.Name)
	require.NotNil(t, previews[0].LatestMessage)
	assert.Equal(t, "latest answer", previews[0].LatestMessage.Content)
	assert.Equal(t, teacher.Email, previews[0].LatestMessage.Sender.Email)

	messages, err := engine.GetTicketMessages(ctx, student, ticket.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first question", messages[0].Content)
}
