package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/config"
	"github.com/meinhoongagan/campus-booking/cron"
	"github.com/meinhoongagan/campus-booking/db"
	"github.com/meinhoongagan/campus-booking/directory"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/memstore"
	"github.com/meinhoongagan/campus-booking/metrics"
	"github.com/meinhoongagan/campus-booking/notify"
	"github.com/meinhoongagan/campus-booking/redis"
	"github.com/meinhoongagan/campus-booking/routes"
)

type userStore interface {
	identity.UserStore
	directory.Store
}

// stores is one persistence backend seen through each engine's interface.
type stores struct {
	bookings booking.Store
	chat     chat.Store
	users    userStore
	notify   notify.Store
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate bool) (*stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("Using the in-memory store; data is lost on exit")
		mem := memstore.New()
		return &stores{
			bookings: mem.Bookings(),
			chat:     mem.Chat(),
			users:    mem,
			notify:   mem,
			close:    func() error { return nil },
		}, nil
	}

	gdb, err := db.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.Migrate(ctx, gdb, log); err != nil {
			db.Close(gdb)
			return nil, err
		}
	}
	bookings := db.NewBookingStore(gdb)
	return &stores{
		bookings: bookings,
		chat:     db.NewChatStore(gdb),
		users:    db.NewUserStore(gdb),
		notify:   bookings,
		close:    func() error { return db.Close(gdb) },
	}, nil
}

// service is the fully wired application.
type service struct {
	cfg       *config.Config
	log       *zap.Logger
	stores    *stores
	metrics   *metrics.Metrics
	hub       *redis.Hub
	accounts  *identity.Accounts
	directory *directory.Directory
	bookings  *booking.Engine
	chat      *chat.Engine
	reminders *cron.Reminders
	cleanup   []func() error
}

func newService(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate bool) (*service, error) {
	st, err := openStores(ctx, cfg, log, migrate)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &service{
		cfg:     cfg,
		log:     log,
		stores:  st,
		metrics: metrics.New(),
		hub:     redis.NewHub(log),
		cleanup: []func() error{st.close},
	}

	var cache booking.ScheduleCache = s.hub
	if cfg.RedisAddr != "" {
		client, err := redis.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("Redis unavailable, schedules will not be cached", zap.Error(err))
		} else {
			cache = redis.NewScheduleCache(client, cfg.ScheduleCacheTTL, log)
			s.cleanup = append(s.cleanup, client.Close)
			go s.hub.Run(ctx, client)
			log.Info("Schedule cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	var sender notify.Sender = notify.LogSender{Log: log}
	if cfg.MailEnabled() {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
		})
	}
	mailer := notify.NewMailer(st.notify, sender, log)

	issuer := identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	s.accounts = identity.NewAccounts(st.users, issuer, log)
	s.directory = directory.New(st.users, cfg.Departments, log)
	s.bookings = booking.NewEngine(st.bookings, log,
		booking.WithCache(cache),
		booking.WithNotifier(mailer),
		booking.WithMetrics(s.metrics),
	)
	s.chat = chat.NewEngine(st.chat, log, s.metrics)
	s.reminders = cron.NewReminders(st.notify, mailer, log)
	return s, nil
}

func (s *service) routes() routes.Deps {
	return routes.Deps{
		Accounts:     s.accounts,
		Directory:    s.directory,
		Bookings:     s.bookings,
		Chat:         s.chat,
		Hub:          s.hub,
		Metrics:      s.metrics,
		JWTSecret:    []byte(s.cfg.JWTSecret),
		SecureCookie: s.cfg.IsProduction(),
		CORSOrigins:  s.cfg.CORSOrigins,
		Log:          s.log,
	}
}

func (s *service) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](); err != nil {
			s.log.Warn("Cleanup failed", zap.Error(err))
		}
	}
}
