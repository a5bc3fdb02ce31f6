package main

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/oauthlink/internal/config"
	"github.com/dmitrymomot/oauthlink/pkg/db"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/logger"
)

type migrateFunc func(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, dir, table string, log *slog.Logger) error

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply pending migrations", db.Migrate),
		migrateSubcommand("down", "Roll back the last migration", db.Rollback),
		migrateSubcommand("status", "Print migration status", db.Status),
	)
	return cmd
}

func migrateSubcommand(use, short string, run migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotenv(envFiles...); err != nil {
				return err
			}
			var cfg struct {
				DB  db.Config
				Log logger.Config
			}
			if err := config.Parse(&cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			log := logger.New(cfg.Log)
			pool, err := db.Connect(ctx, cfg.DB, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			return run(ctx, pool, identity.Migrations, identity.MigrationsDir, cfg.DB.MigrationsTable, log)
		},
	}
}
