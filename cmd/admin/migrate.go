package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"finboard/internal/infrastructure/postgres"
	"finboard/internal/shared/config"
	"finboard/internal/shared/logging"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(postgres.Up)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(postgres.Down)
		},
	})

	return cmd
}

func runMigrate(dir postgres.Direction) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := postgres.Migrate(cfg.Database.URL(), dir); err != nil {
		return err
	}
	slog.Info("migrations complete", "direction", directionName(dir))
	return nil
}

func directionName(dir postgres.Direction) string {
	if dir == postgres.Down {
		return "down"
	}
	return "up"
}
