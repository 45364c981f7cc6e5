package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cfg.Store.Driver == config.StoreDriverSQLite {
				db, err := persistence.OpenSQLite(cfg.SQLite.Path, logger)
				if err != nil {
					return err
				}
				defer db.Close()
				return persistence.MigrateSQLite(db.DB, logger)
			}
			return persistence.MigratePostgres(cfg.Postgres.DSN, logger)
		},
	})
	return migrateCmd
}
