// Package chat manages tickets between one student and one teacher and the
// append-only message log inside each ticket.
package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
)

const MaxMessageLength = 4000

type Engine struct {
	store   Store
	metrics Metrics
	log     *zap.Logger
}

func NewEngine(store Store, log *zap.Logger, metrics Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Engine{store: store, metrics: metrics, log: log}
}

// CreateTicket opens a ticket for a (student, teacher) pair. The caller must
// be one side of the pair; a student caller may leave studentID empty.
func (e *Engine) CreateTicket(ctx context.Context, p *identity.Principal, studentID, teacherID uuid.UUID) (*models.ChatTicket, error) {
	const op = "create_ticket"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if p.IsStudent() && studentID == uuid.Nil {
		studentID = p.ProfileID
	}
	isStudent := p.IsStudent() && p.ProfileID == studentID
	isTeacher := p.IsTeacher() && p.ProfileID == teacherID
	if !isStudent && !isTeacher {
		return nil, e.fail(op, apperr.ErrNotAParty)
	}

	if ok, err := e.store.TeacherExists(ctx, teacherID); err != nil {
		return nil, e.fail(op, classify("find teacher", err, apperr.ErrTeacherNotFound))
	} else if !ok {
		return nil, e.fail(op, apperr.ErrTeacherNotFound)
	}
	if ok, err := e.store.StudentExists(ctx, studentID); err != nil {
		return nil, e.fail(op, classify("find student", err, apperr.ErrStudentNotFound))
	} else if !ok {
		return nil, e.fail(op, apperr.ErrStudentNotFound)
	}

	t := &models.ChatTicket{StudentID: studentID, TeacherID: teacherID, Status: models.TicketOpen}
	if err := e.store.CreateTicket(ctx, t); err != nil {
		return nil, e.fail(op, classify("create ticket", err, apperr.ErrTicketNotFound))
	}
	e.log.Info("Chat ticket opened",
		zap.String("ticket_id", t.ID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("teacher_id", teacherID.String()),
	)
	return t, nil
}

// SendMessage appends a message from the caller. Sender id and role come
// from the principal, never from the request.
func (e *Engine) SendMessage(ctx context.Context, p *identity.Principal, ticketID uuid.UUID, content string) (*models.ChatMessage, error) {
	const op = "send_message"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, e.fail(op, apperr.Validation("Message content is required",
			map[string][]string{"content": {"required"}}))
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, e.fail(op, apperr.Validation("Message is too long",
			map[string][]string{"content": {"max"}}))
	}

	var msg *models.ChatMessage
	err := e.store.Transaction(ctx, func(tx Store) error {
		t, err := tx.LockTicket(ctx, ticketID)
		if err != nil {
			return classify("lock ticket", err, apperr.ErrTicketNotFound)
		}
		if !isParty(p, t) {
			return apperr.ErrNotAParty
		}
		if t.Status == models.TicketClosed {
			return apperr.ErrTicketClosed
		}
		m := &models.ChatMessage{
			TicketID:   t.ID,
			Content:    content,
			SenderID:   p.UserID,
			SenderRole: p.Role,
		}
		if err := tx.CreateMessage(ctx, m); err != nil {
			return classify("create message", err, apperr.ErrTicketNotFound)
		}
		if err := tx.TouchTicket(ctx, t.ID); err != nil {
			return classify("touch ticket", err, apperr.ErrTicketNotFound)
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err)
	}

	e.metrics.MessageSent(p.Role)
	e.log.Debug("Chat message sent",
		zap.String("ticket_id", ticketID.String()),
		zap.String("sender_role", string(p.Role)),
	)
	return msg, nil
}

// UpdateTicketStatus changes the ticket lifecycle. Either party may move
// between OPEN and IN_PROGRESS; only the ticket's teacher may close a ticket
// or reopen a closed one.
func (e *Engine) UpdateTicketStatus(ctx context.Context, p *identity.Principal, ticketID uuid.UUID, status models.TicketStatus) (*models.ChatTicket, error) {
	const op = "update_ticket_status"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if !status.Valid() {
		return nil, e.fail(op, apperr.ErrInvalidStatus.Withf("Unknown ticket status %q", status))
	}

	var updated *models.ChatTicket
	err := e.store.Transaction(ctx, func(tx Store) error {
		t, err := tx.LockTicket(ctx, ticketID)
		if err != nil {
			return classify("lock ticket", err, apperr.ErrTicketNotFound)
		}
		if !isParty(p, t) {
			return apperr.ErrNotAParty
		}
		teacher := p.IsTeacher() && p.ProfileID == t.TeacherID
		if (status == models.TicketClosed || t.Status == models.TicketClosed) && !teacher {
			return apperr.ErrForbidden.Withf("Only the teacher can close or reopen a ticket")
		}
		if t.Status == status {
			updated = t
			return nil
		}
		if err := tx.UpdateTicketStatus(ctx, t.ID, status); err != nil {
			return classify("update ticket status", err, apperr.ErrTicketNotFound)
		}
		updated, err = tx.GetTicket(ctx, t.ID)
		if err != nil {
			return classify("reload ticket", err, apperr.ErrTicketNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err)
	}

	e.metrics.TicketStatusChanged(updated.Status)
	e.log.Info("Chat ticket status changed",
		zap.String("ticket_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// GetTicketMessages returns the full log, oldest first.
func (e *Engine) GetTicketMessages(ctx context.Context, p *identity.Principal, ticketID uuid.UUID) ([]models.MessageView, error) {
	const op = "get_ticket_messages"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	t, err := e.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, e.fail(op, classify("get ticket", err, apperr.ErrTicketNotFound))
	}
	if !isParty(p, t) {
		return nil, e.fail(op, apperr.ErrNotAParty)
	}
	msgs, err := e.store.ListMessages(ctx, ticketID)
	if err != nil {
		return nil, e.fail(op, classify("list messages", err, apperr.ErrTicketNotFound))
	}
	if msgs == nil {
		msgs = []models.MessageView{}
	}
	return msgs, nil
}

// GetTeacherTickets is the teacher's inbox: most recently active first, each
// ticket carrying only its latest message.
func (e *Engine) GetTeacherTickets(ctx context.Context, p *identity.Principal, teacherID uuid.UUID) ([]models.TicketPreview, error) {
	const op = "get_teacher_tickets"
	if err := identity.RequireTeacher(p, teacherID); err != nil {
		return nil, e.fail(op, err)
	}
	out, err := e.store.ListTeacherTickets(ctx, teacherID)
	if err != nil {
		return nil, e.fail(op, classify("list teacher tickets", err, apperr.ErrTeacherNotFound))
	}
	if out == nil {
		out = []models.TicketPreview{}
	}
	return out, nil
}

// GetStudentTickets lists the calling student's tickets like GetTeacherTickets.
func (e *Engine) GetStudentTickets(ctx context.Context, p *identity.Principal) ([]models.TicketPreview, error) {
	const op = "get_student_tickets"
	if err := identity.Require(p); err != nil {
		return nil, e.fail(op, err)
	}
	if !p.IsStudent() {
		return nil, e.fail(op, apperr.ErrNotAStudent)
	}
	out, err := e.store.ListStudentTickets(ctx, p.ProfileID)
	if err != nil {
		return nil, e.fail(op, classify("list student tickets", err, apperr.ErrStudentNotFound))
	}
	if out == nil {
		out = []models.TicketPreview{}
	}
	return out, nil
}

func isParty(p *identity.Principal, t *models.ChatTicket) bool {
	switch p.Role {
	case models.RoleStudent:
		return p.ProfileID == t.StudentID
	case models.RoleTeacher:
		return p.ProfileID == t.TeacherID
	}
	return false
}

func (e *Engine) fail(op string, err error) error {
	ae := apperr.As(err)
	if ae.Kind == apperr.KindPersistence {
		e.log.Error("Chat operation failed", zap.String("op", op), zap.Error(err))
	}
	return ae
}

func classify(op string, err error, notFound *apperr.Error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperr.Persistence(op, err)
}
