package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/models"
)

// ChatStore implements chat.Store on postgres.
type ChatStore struct {
	db *gorm.DB
}

var _ chat.Store = (*ChatStore)(nil)

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *ChatStore) Transaction(ctx context.Context, fn func(tx chat.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ChatStore{db: tx})
	})
}

func (s *ChatStore) TeacherExists(ctx context.Context, teacherID uuid.UUID) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Teacher{}).Where("id = ?", teacherID).Count(&n).Error
	return n > 0, mapError("find teacher", err)
}

func (s *ChatStore) StudentExists(ctx context.Context, studentID uuid.UUID) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Student{}).Where("id = ?", studentID).Count(&n).Error
	return n > 0, mapError("find student", err)
}

func (s *ChatStore) CreateTicket(ctx context.Context, t *models.ChatTicket) error {
	return mapError("create ticket", s.conn(ctx).Create(t).Error)
}

func (s *ChatStore) GetTicket(ctx context.Context, id uuid.UUID) (*models.ChatTicket, error) {
	var t models.ChatTicket
	if err := s.conn(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, mapError("get ticket", err)
	}
	return &t, nil
}

func (s *ChatStore) LockTicket(ctx context.Context, id uuid.UUID) (*models.ChatTicket, error) {
	var t models.ChatTicket
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, mapError("lock ticket", err)
	}
	return &t, nil
}

func (s *ChatStore) UpdateTicketStatus(ctx context.Context, id uuid.UUID, status models.TicketStatus) error {
	return s.update(ctx, id, map[string]any{"status": status, "updated_at": time.Now().UTC()})
}

func (s *ChatStore) TouchTicket(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, id, map[string]any{"updated_at": time.Now().UTC()})
}

func (s *ChatStore) update(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	res := s.conn(ctx).Model(&models.ChatTicket{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return mapError("update ticket", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *ChatStore) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	return mapError("create message", s.conn(ctx).Create(m).Error)
}

type messageRow struct {
	models.ChatMessage
	SenderEmail       string
	SenderDisplayName string
}

func (r messageRow) view() models.MessageView {
	return models.MessageView{
		ChatMessage: r.ChatMessage,
		Sender:      models.Sender{Email: r.SenderEmail, DisplayName: r.SenderDisplayName},
	}
}

// senderSelect resolves the sender's display name from whichever profile they own.
const senderSelect = `m.*, u.email AS sender_email,
	COALESCE(t.username, st.name, '') AS sender_display_name`

func (s *ChatStore) messages(ctx context.Context) *gorm.DB {
	return s.conn(ctx).
		Table("chat_messages AS m").
		Select(senderSelect).
		Joins("JOIN users u ON u.id = m.sender_id").
		Joins("LEFT JOIN teachers t ON t.user_id = u.id").
		Joins("LEFT JOIN students st ON st.user_id = u.id")
}

func (s *ChatStore) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]models.MessageView, error) {
	var rows []messageRow
	err := s.messages(ctx).
		Where("m.ticket_id = ?", ticketID).
		Order("m.created_at ASC, m.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError("list messages", err)
	}
	out := make([]models.MessageView, len(rows))
	for i, r := range rows {
		out[i] = r.view()
	}
	return out, nil
}

func (s *ChatStore) ListTeacherTickets(ctx context.Context, teacherID uuid.UUID) ([]models.TicketPreview, error) {
	return s.previews(ctx, "ct.teacher_id = ?", teacherID)
}

func (s *ChatStore) ListStudentTickets(ctx context.Context, studentID uuid.UUID) ([]models.TicketPreview, error) {
	return s.previews(ctx, "ct.student_id = ?", studentID)
}

type ticketRow struct {
	models.ChatTicket
	StudentName       string
	StudentRollNo     string
	TeacherUsername   string
	TeacherDepartment string
}

func (s *ChatStore) previews(ctx context.Context, where string, id uuid.UUID) ([]models.TicketPreview, error) {
	var tickets []ticketRow
	err := s.conn(ctx).
		Table("chat_tickets AS ct").
		Select(`ct.*,
			st.name AS student_name, st.roll_no AS student_roll_no,
			t.username AS teacher_username, t.department AS teacher_department`).
		Joins("JOIN students st ON st.id = ct.student_id").
		Joins("JOIN teachers t ON t.id = ct.teacher_id").
		Where(where, id).
		Order("ct.updated_at DESC").
		Scan(&tickets).Error
	if err != nil {
		return nil, mapError("list tickets", err)
	}
	if len(tickets) == 0 {
		return []models.TicketPreview{}, nil
	}

	ids := make([]uuid.UUID, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	// One latest message per ticket.
	var latest []messageRow
	err = s.messages(ctx).
		Select("DISTINCT ON (m.ticket_id) "+senderSelect).
		Where("m.ticket_id IN ?", ids).
		Order("m.ticket_id, m.created_at DESC, m.id DESC").
		Scan(&latest).Error
	if err != nil {
		return nil, mapError("latest messages", err)
	}
	byTicket := make(map[uuid.UUID]models.MessageView, len(latest))
	for _, r := range latest {
		byTicket[r.TicketID] = r.view()
	}

	out := make([]models.TicketPreview, len(tickets))
	for i, t := range tickets {
		p := models.TicketPreview{
			ChatTicket: t.ChatTicket,
			Student:    models.StudentIdentity{Name: t.StudentName, RollNo: t.StudentRollNo},
			Teacher:    models.TeacherIdentity{Username: t.TeacherUsername, Department: t.TeacherDepartment},
		}
		if m, ok := byTicket[t.ID]; ok {
			p.LatestMessage = &m
		}
		out[i] = p
	}
	return out, nil
}
