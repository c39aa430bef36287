package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/config"
	"github.com/meinhoongagan/campus-booking/routes"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		migrate bool
		seed    bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log, migrate, seed)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load demo data before serving")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, log *zap.Logger, migrate, seed bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, log, migrate)
	if err != nil {
		return err
	}
	defer svc.close()

	if seed {
		if err := seedDemo(ctx, svc); err != nil {
			return err
		}
	}

	if cfg.ReminderCron != "" {
		scheduler, err := svc.reminders.Start(cfg.ReminderCron)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	app := routes.NewApp(svc.routes())
	errCh := make(chan error, 1)
	go func() {
		log.Info("Server started",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
		)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
