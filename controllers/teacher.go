package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/directory"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/utils"
)

// TeacherController serves the per-teacher read views: directory listing,
// weekly schedule, pending requests and the ticket inbox.
type TeacherController struct {
	directory *directory.Directory
	bookings  *booking.Engine
	chat      *chat.Engine
}

func NewTeacherController(dir *directory.Directory, bookings *booking.Engine, chat *chat.Engine) *TeacherController {
	return &TeacherController{directory: dir, bookings: bookings, chat: chat}
}

// List returns the teachers of ?department=, ordered by username.
func (tc *TeacherController) List(c *fiber.Ctx) error {
	teachers, err := tc.directory.ListTeachers(c.UserContext(), c.Query("department"))
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, teachers)
}

func (tc *TeacherController) Departments(c *fiber.Ctx) error {
	return utils.SendData(c, fiber.StatusOK, tc.directory.Departments())
}

type scheduleResponse struct {
	Slots []models.ScheduleSlot `json:"slots"`
	Grid  booking.Grid          `json:"grid"`
}

// Schedule returns the teacher's slots and the hour grid built from them.
func (tc *TeacherController) Schedule(c *fiber.Ctx) error {
	teacherID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	slots, err := tc.bookings.GetTeacherSchedule(c.UserContext(), teacherID)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, scheduleResponse{Slots: slots, Grid: booking.BuildGrid(slots)})
}

func (tc *TeacherController) PendingBookings(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	teacherID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	pending, err := tc.bookings.GetPendingBookings(c.UserContext(), p, teacherID)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, pending)
}

func (tc *TeacherController) Tickets(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	teacherID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	tickets, err := tc.chat.GetTeacherTickets(c.UserContext(), p, teacherID)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, tickets)
}
