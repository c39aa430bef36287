package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/utils"
)

type TicketController struct {
	chat *chat.Engine
}

func NewTicketController(chat *chat.Engine) *TicketController {
	return &TicketController{chat: chat}
}

type createTicketRequest struct {
	// StudentID may be omitted when a student opens the ticket.
	StudentID uuid.UUID `json:"student_id"`
	TeacherID uuid.UUID `json:"teacher_id" validate:"required"`
}

func (tc *TicketController) Create(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	var req createTicketRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ticket, err := tc.chat.CreateTicket(c.UserContext(), p, req.StudentID, req.TeacherID)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusCreated, ticket)
}

func (tc *TicketController) Mine(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	tickets, err := tc.chat.GetStudentTickets(c.UserContext(), p)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, tickets)
}

type ticketStatusRequest struct {
	Status models.TicketStatus `json:"status" validate:"required"`
}

func (tc *TicketController) UpdateStatus(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	ticketID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req ticketStatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ticket, err := tc.chat.UpdateTicketStatus(c.UserContext(), p, ticketID, req.Status)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, ticket)
}

func (tc *TicketController) Messages(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	ticketID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	messages, err := tc.chat.GetTicketMessages(c.UserContext(), p, ticketID)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, messages)
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// SendMessage appends a message as the caller; the sender is never taken
// from the body.
func (tc *TicketController) SendMessage(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	ticketID, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	msg, err := tc.chat.SendMessage(c.UserContext(), p, ticketID, req.Content)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusCreated, msg)
}
