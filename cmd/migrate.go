package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/meinhoongagan/campus-booking/config"
	"github.com/meinhoongagan/campus-booking/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.StoreDriver != config.DriverPostgres {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}

			gdb, err := db.Open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.Close(gdb)
			return db.Migrate(cmd.Context(), gdb, log)
		},
	}
}
