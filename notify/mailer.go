// Package notify emails students and teachers about booking decisions and
// same-day appointments.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/models"
)

// Store resolves the people behind a booking.
type Store interface {
	BookingParticipants(ctx context.Context, bookingID uuid.UUID) (*models.ReminderTarget, error)
	ApprovedBookingsOn(ctx context.Context, day models.DayOfWeek) ([]models.ReminderTarget, error)
}

// Sender delivers one HTML email.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.Username,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

// LogSender records messages instead of sending them. Used when SMTP is not configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(to, subject, _ string) error {
	s.Log.Info("Email suppressed (SMTP not configured)", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Mailer implements booking.Notifier.
type Mailer struct {
	store  Store
	sender Sender
	log    *zap.Logger
}

var _ booking.Notifier = (*Mailer)(nil)

func NewMailer(store Store, sender Sender, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{store: store, sender: sender, log: log}
}

// Names come from user input, so bodies go through html/template.
var (
	requestedBody = template.Must(template.New("requested").Parse(`
		<p>Dear {{.TeacherName}},</p>
		<p>{{.StudentName}} has requested an appointment from {{.Start}} to {{.End}}.</p>
		<p>Please review it in your pending requests.</p>
	`))
	approvedBody = template.Must(template.New("approved").Parse(`
		<p>Dear {{.StudentName}},</p>
		<p>Your appointment with {{.TeacherName}} has been approved.</p>
		<ul>
			<li><strong>Start Time:</strong> {{.Start}}</li>
			<li><strong>End Time:</strong> {{.End}}</li>
		</ul>
	`))
	rejectedBody = template.Must(template.New("rejected").Parse(`
		<p>Dear {{.StudentName}},</p>
		<p>Your appointment request with {{.TeacherName}} for {{.Start}} to {{.End}} was declined.</p>
	`))
	reminderBody = template.Must(template.New("reminder").Parse(`
		<p>Dear {{.StudentName}},</p>
		<p>This is a reminder for your appointment today.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Teacher:</strong> {{.TeacherName}}</li>
			<li><strong>Start Time:</strong> {{.Start}}</li>
			<li><strong>End Time:</strong> {{.End}}</li>
		</ul>
		<p>If you can no longer attend, message your teacher as soon as possible.</p>
	`))
)

func render(tmpl *template.Template, t *models.ReminderTarget) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// BookingChanged mails the teacher about new requests and the student about decisions.
func (m *Mailer) BookingChanged(ctx context.Context, bookingID uuid.UUID, ev booking.Event) error {
	t, err := m.store.BookingParticipants(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load booking participants: %w", err)
	}

	var to, subject string
	var tmpl *template.Template
	switch ev {
	case booking.EventRequested:
		to = t.TeacherEmail
		subject = fmt.Sprintf("New appointment request from %s", t.StudentName)
		tmpl = requestedBody
	case booking.EventApproved:
		to = t.StudentEmail
		subject = fmt.Sprintf("Appointment with %s approved", t.TeacherName)
		tmpl = approvedBody
	case booking.EventRejected:
		to = t.StudentEmail
		subject = fmt.Sprintf("Appointment with %s declined", t.TeacherName)
		tmpl = rejectedBody
	default:
		return fmt.Errorf("unknown booking event %q", ev)
	}

	if to == "" {
		return fmt.Errorf("booking %s has no recipient for %s", bookingID, ev)
	}
	body, err := render(tmpl, t)
	if err != nil {
		return err
	}
	if err := m.sender.Send(to, subject, body); err != nil {
		return fmt.Errorf("send %s email: %w", ev, err)
	}
	m.log.Debug("Booking email sent", zap.String("booking_id", bookingID.String()), zap.String("event", string(ev)))
	return nil
}

// SendReminder mails the student about an approved appointment later today.
func (m *Mailer) SendReminder(t models.ReminderTarget) error {
	subject := fmt.Sprintf("Reminder: Appointment with %s today", t.TeacherName)
	body, err := render(reminderBody, &t)
	if err != nil {
		return err
	}
	return m.sender.Send(t.StudentEmail, subject, body)
}
