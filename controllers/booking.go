package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/utils"
)

type BookingController struct {
	bookings *booking.Engine
}

func NewBookingController(bookings *booking.Engine) *BookingController {
	return &BookingController{bookings: bookings}
}

type createBookingRequest struct {
	TeacherID  uuid.UUID        `json:"teacher_id" validate:"required"`
	TimeSlotID uuid.UUID        `json:"time_slot_id" validate:"required"`
	Reason     string           `json:"reason" validate:"required,max=1000"`
	StartTime  models.TimeOfDay `json:"requested_start_time"`
	EndTime    models.TimeOfDay `json:"requested_end_time"`
}

// Create records a pending request for part of a slot.
func (bc *BookingController) Create(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	var req createBookingRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	b, err := bc.bookings.CreateBooking(c.UserContext(), p, booking.CreateBookingInput{
		TeacherID:  req.TeacherID,
		TimeSlotID: req.TimeSlotID,
		Reason:     req.Reason,
		Start:      req.StartTime,
		End:        req.EndTime,
	})
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusCreated, b)
}

func (bc *BookingController) Mine(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	bookings, err := bc.bookings.GetStudentBookings(c.UserContext(), p)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, bookings)
}

type approveRequest struct {
	StartTime *models.TimeOfDay `json:"approved_start_time"`
	EndTime   *models.TimeOfDay `json:"approved_end_time"`
	Notes     *string           `json:"notes" validate:"omitempty,max=1000"`
}

func (bc *BookingController) Approve(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	bookingID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req approveRequest
	if len(c.Body()) > 0 {
		if err := utils.ParseBody(c, &req); err != nil {
			return err
		}
	}

	b, err := bc.bookings.ApproveBooking(c.UserContext(), p, bookingID, booking.ApproveInput{
		Start: req.StartTime,
		End:   req.EndTime,
		Notes: req.Notes,
	})
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, b)
}

type rejectRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

func (bc *BookingController) Reject(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	bookingID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req rejectRequest
	if len(c.Body()) > 0 {
		if err := utils.ParseBody(c, &req); err != nil {
			return err
		}
	}

	b, err := bc.bookings.RejectBooking(c.UserContext(), p, bookingID, req.Notes)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, b)
}
