package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crowd-pulse-lab/internal/logging"
	"crowd-pulse-lab/internal/storage/migrations"
	pgstore "crowd-pulse-lab/internal/storage/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := a.cfg.Storage
			log := logging.Component(a.log, "migrations")

			if cfg.PostgresDSN == "" {
				return fmt.Errorf("POSTGRES_DSN is required")
			}

			pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			applied, err := migrations.RunPostgresMigrations(ctx, pool, log)
			if err != nil {
				return err
			}
			log.Info().Int("applied", len(applied)).Strs("files", applied).Msg("postgres migrations complete")

			if cfg.ClickhouseDSN == "" {
				log.Info().Msg("CLICKHOUSE_DSN not set, skipping clickhouse migrations")
				return nil
			}

			conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN, log)
			if err != nil {
				return err
			}
			conn.Close()
			log.Info().Msg("clickhouse migrations complete")
			return nil
		},
	}
}
