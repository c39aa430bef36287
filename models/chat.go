package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketClosed     TicketStatus = "CLOSED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketClosed:
		return true
	}
	return false
}

type ChatTicket struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	StudentID uuid.UUID     `json:"student_id" gorm:"type:uuid;index;not null"`
	TeacherID uuid.UUID     `json:"teacher_id" gorm:"type:uuid;index;not null"`
	Status    TicketStatus  `json:"status" gorm:"type:varchar(16);not null;default:'OPEN'"`
	Messages  []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:TicketID"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (t *ChatTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TicketOpen
	}
	return nil
}

// ChatMessage is append-only; no update path exists.
type ChatMessage struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TicketID   uuid.UUID `json:"ticket_id" gorm:"type:uuid;index:idx_chat_messages_ticket_created,priority:1;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	SenderID   uuid.UUID `json:"sender_id" gorm:"type:uuid;not null"`
	SenderRole Role      `json:"sender_role" gorm:"type:varchar(16);not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"index:idx_chat_messages_ticket_created,priority:2"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
