package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/config"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
)

const demoPassword = "password123"

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo teachers, students, slots and bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.StoreDriver == config.DriverMemory {
				return errors.New("seeding the in-memory store has no effect; use serve --seed")
			}

			svc, err := newService(cmd.Context(), cfg, log, true)
			if err != nil {
				return err
			}
			defer svc.close()
			return seedDemo(cmd.Context(), svc)
		},
	}
}

func principalOf(u *models.User) *identity.Principal {
	return &identity.Principal{UserID: u.ID, Email: u.Email, Role: u.Role, ProfileID: u.ProfileID()}
}

// seedDemo goes through the engines so the demo data obeys the same rules
// as live traffic. It is a no-op when the demo accounts already exist.
func seedDemo(ctx context.Context, svc *service) error {
	register := func(in identity.RegisterInput) (*identity.Principal, error) {
		in.Password = demoPassword
		u, err := svc.accounts.Register(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", in.Email, err)
		}
		return principalOf(u), nil
	}

	smith, err := register(identity.RegisterInput{
		Email: "smith@university.edu", Role: models.RoleTeacher, Username: "prof_smith", Department: "CSE",
	})
	if errors.Is(err, apperr.ErrEmailTaken) {
		svc.log.Info("Demo data already present, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}
	jones, err := register(identity.RegisterInput{
		Email: "jones@university.edu", Role: models.RoleTeacher, Username: "dr_jones", Department: "ECE",
	})
	if err != nil {
		return err
	}
	john, err := register(identity.RegisterInput{
		Email: "john.doe@university.edu", Role: models.RoleStudent, Name: "John Doe", RollNo: "CS2024001",
	})
	if err != nil {
		return err
	}
	jane, err := register(identity.RegisterInput{
		Email: "jane.smith@university.edu", Role: models.RoleStudent, Name: "Jane Smith", RollNo: "CS2024002",
	})
	if err != nil {
		return err
	}

	slot := func(p *identity.Principal, day models.DayOfWeek, from, to int) (*models.TimeSlot, error) {
		return svc.bookings.CreateSlot(ctx, p, booking.CreateSlotInput{
			DayOfWeek:   day,
			Start:       models.Clock(from, 0),
			End:         models.Clock(to, 0),
			IsRecurring: true,
		})
	}
	smithMonday, err := slot(smith, models.Monday, 10, 11)
	if err != nil {
		return err
	}
	smithWednesday, err := slot(smith, models.Wednesday, 14, 15)
	if err != nil {
		return err
	}
	jonesTuesday, err := slot(jones, models.Tuesday, 13, 14)
	if err != nil {
		return err
	}

	request := func(p *identity.Principal, s *models.TimeSlot, reason string) (*models.Booking, error) {
		return svc.bookings.CreateBooking(ctx, p, booking.CreateBookingInput{
			TeacherID:  s.TeacherID,
			TimeSlotID: s.ID,
			Reason:     reason,
			Start:      s.StartTime,
			End:        s.EndTime,
		})
	}
	project, err := request(john, smithMonday, "Discussion about final project")
	if err != nil {
		return err
	}
	approveNotes := "Approved. Please bring your project documentation."
	if _, err := svc.bookings.ApproveBooking(ctx, smith, project.ID, booking.ApproveInput{Notes: &approveNotes}); err != nil {
		return err
	}
	if _, err := request(jane, jonesTuesday, "Need help with calculus homework"); err != nil {
		return err
	}
	internship, err := request(jane, smithWednesday, "Discuss internship opportunities")
	if err != nil {
		return err
	}
	rejectNotes := "Please book a slot next week as I will be attending a conference."
	if _, err := svc.bookings.RejectBooking(ctx, smith, internship.ID, &rejectNotes); err != nil {
		return err
	}

	ticket, err := svc.chat.CreateTicket(ctx, john, john.ProfileID, smith.ProfileID)
	if err != nil {
		return err
	}
	if _, err := svc.chat.SendMessage(ctx, john, ticket.ID, "Should I bring a printed copy of the report?"); err != nil {
		return err
	}

	svc.log.Info("Demo data created", zap.String("password", demoPassword))
	return nil
}
