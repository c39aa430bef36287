// Package cmd holds the campus-booking command line: serve, migrate and seed.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/config"
	"github.com/meinhoongagan/campus-booking/logger"
)

const appName = "campus-booking"

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "University appointment booking and messaging service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return cmd
}

// setup loads configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.Env), nil
}
