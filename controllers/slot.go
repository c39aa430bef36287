package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/utils"
)

type SlotController struct {
	bookings *booking.Engine
}

func NewSlotController(bookings *booking.Engine) *SlotController {
	return &SlotController{bookings: bookings}
}

type createSlotRequest struct {
	DayOfWeek   *int              `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime   models.TimeOfDay  `json:"start_time"`
	EndTime     models.TimeOfDay  `json:"end_time"`
	Status      models.SlotStatus `json:"status" validate:"omitempty,oneof=FREE LECTURE OTHER"`
	IsRecurring bool              `json:"is_recurring"`
}

func (sc *SlotController) Create(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	var req createSlotRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	slot, err := sc.bookings.CreateSlot(c.UserContext(), p, booking.CreateSlotInput{
		DayOfWeek:   models.DayOfWeek(*req.DayOfWeek),
		Start:       req.StartTime,
		End:         req.EndTime,
		Status:      req.Status,
		IsRecurring: req.IsRecurring,
	})
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusCreated, slot)
}

type slotStatusRequest struct {
	Status models.SlotStatus `json:"status" validate:"required"`
}

// UpdateStatus sets FREE, LECTURE or OTHER on one of the caller's slots.
func (sc *SlotController) UpdateStatus(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	slotID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req slotStatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	slot, err := sc.bookings.SetSlotStatus(c.UserContext(), p, slotID, req.Status)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, slot)
}
