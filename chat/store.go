package chat

import (
	"context"

	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/models"
)

// Store returns gorm.ErrRecordNotFound for missing rows.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	TeacherExists(ctx context.Context, teacherID uuid.UUID) (bool, error)
	StudentExists(ctx context.Context, studentID uuid.UUID) (bool, error)

	CreateTicket(ctx context.Context, t *models.ChatTicket) error
	GetTicket(ctx context.Context, id uuid.UUID) (*models.ChatTicket, error)
	LockTicket(ctx context.Context, id uuid.UUID) (*models.ChatTicket, error)
	// UpdateTicketStatus sets status and advances updated_at.
	UpdateTicketStatus(ctx context.Context, id uuid.UUID, status models.TicketStatus) error
	// TouchTicket advances updated_at.
	TouchTicket(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, m *models.ChatMessage) error
	// ListMessages orders by created_at ascending.
	ListMessages(ctx context.Context, ticketID uuid.UUID) ([]models.MessageView, error)
	// ListTeacherTickets orders by updated_at descending, latest message only.
	ListTeacherTickets(ctx context.Context, teacherID uuid.UUID) ([]models.TicketPreview, error)
	ListStudentTickets(ctx context.Context, studentID uuid.UUID) ([]models.TicketPreview, error)
}

// Metrics records chat activity.
type Metrics interface {
	MessageSent(role models.Role)
	TicketStatusChanged(status models.TicketStatus)
}

type noopMetrics struct{}

func (noopMetrics) MessageSent(models.Role)                {}
func (noopMetrics) TicketStatusChanged(models.TicketStatus) {}
