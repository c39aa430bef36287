package memstore

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/models"
)

type chatStore struct {
	db   *DB
	inTx bool
}

var _ chat.Store = (*chatStore)(nil)

func (s *chatStore) Transaction(ctx context.Context, fn func(tx chat.Store) error) error {
	return s.db.transaction(ctx, s.inTx, func() error {
		return fn(&chatStore{db: s.db, inTx: true})
	})
}

func (s *chatStore) TeacherExists(ctx context.Context, teacherID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.run(s.inTx, func() error {
		_, ok = s.db.t.teachers[teacherID]
		return nil
	})
	return ok, err
}

func (s *chatStore) StudentExists(ctx context.Context, studentID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.run(s.inTx, func() error {
		_, ok = s.db.t.students[studentID]
		return nil
	})
	return ok, err
}

func (s *chatStore) CreateTicket(ctx context.Context, t *models.ChatTicket) error {
	return s.db.run(s.inTx, func() error {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.Status == "" {
			t.Status = models.TicketOpen
		}
		now := s.db.now()
		t.CreatedAt, t.UpdatedAt = now, now
		s.db.t.tickets[t.ID] = *t
		return nil
	})
}

func (s *chatStore) GetTicket(ctx context.Context, id uuid.UUID) (*models.ChatTicket, error) {
	var out *models.ChatTicket
	err := s.db.run(s.inTx, func() error {
		t, ok := s.db.t.tickets[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (s *chatStore) LockTicket(ctx context.Context, id uuid.UUID) (*models.ChatTicket, error) {
	return s.GetTicket(ctx, id)
}

func (s *chatStore) UpdateTicketStatus(ctx context.Context, id uuid.UUID, status models.TicketStatus) error {
	return s.db.run(s.inTx, func() error {
		t, ok := s.db.t.tickets[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		t.Status = status
		t.UpdatedAt = s.db.now()
		s.db.t.tickets[id] = t
		return nil
	})
}

func (s *chatStore) TouchTicket(ctx context.Context, id uuid.UUID) error {
	return s.db.run(s.inTx, func() error {
		t, ok := s.db.t.tickets[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		t.UpdatedAt = s.db.now()
		s.db.t.tickets[id] = t
		return nil
	})
}

func (s *chatStore) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	return s.db.run(s.inTx, func() error {
		if _, ok := s.db.t.tickets[m.TicketID]; !ok {
			return gorm.ErrRecordNotFound
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CreatedAt = s.db.now()
		s.db.t.messages[m.ID] = *m
		return nil
	})
}

func (s *chatStore) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]models.MessageView, error) {
	out := []models.MessageView{}
	err := s.db.run(s.inTx, func() error {
		for _, m := range s.ticketMessages(ticketID) {
			out = append(out, s.view(m))
		}
		return nil
	})
	return out, err
}

func (s *chatStore) ListTeacherTickets(ctx context.Context, teacherID uuid.UUID) ([]models.TicketPreview, error) {
	return s.previews(func(t models.ChatTicket) bool { return t.TeacherID == teacherID })
}

func (s *chatStore) ListStudentTickets(ctx context.Context, studentID uuid.UUID) ([]models.TicketPreview, error) {
	return s.previews(func(t models.ChatTicket) bool { return t.StudentID == studentID })
}

func (s *chatStore) previews(match func(models.ChatTicket) bool) ([]models.TicketPreview, error) {
	out := []models.TicketPreview{}
	err := s.db.run(s.inTx, func() error {
		for _, t := range s.db.t.tickets {
			if !match(t) {
				continue
			}
			st := s.db.t.students[t.StudentID]
			te := s.db.t.teachers[t.TeacherID]
			p := models.TicketPreview{
				ChatTicket: t,
				Student:    models.StudentIdentity{Name: st.Name, RollNo: st.RollNo},
				Teacher:    models.TeacherIdentity{Username: te.Username, Department: te.Department},
			}
			if msgs := s.ticketMessages(t.ID); len(msgs) > 0 {
				v := s.view(msgs[len(msgs)-1])
				p.LatestMessage = &v
			}
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, err
}

// ticketMessages returns a ticket's messages oldest first, ties by id.
func (s *chatStore) ticketMessages(ticketID uuid.UUID) []models.ChatMessage {
	var msgs []models.ChatMessage
	for _, m := range s.db.t.messages {
		if m.TicketID == ticketID {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return bytes.Compare(msgs[i].ID[:], msgs[j].ID[:]) < 0
	})
	return msgs
}

func (s *chatStore) view(m models.ChatMessage) models.MessageView {
	v := models.MessageView{ChatMessage: m}
	u, ok := s.db.t.users[m.SenderID]
	if !ok {
		return v
	}
	v.Sender.Email = u.Email
	switch m.SenderRole {
	case models.RoleTeacher:
		for _, t := range s.db.t.teachers {
			if t.UserID == u.ID {
				v.Sender.DisplayName = t.Username
			}
		}
	case models.RoleStudent:
		for _, st := range s.db.t.students {
			if st.UserID == u.ID {
				v.Sender.DisplayName = st.Name
			}
		}
	}
	return v
}
