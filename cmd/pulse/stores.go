package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"crowd-pulse-lab/internal/analytics"
	"crowd-pulse-lab/internal/config"
	"crowd-pulse-lab/internal/storage"
	chstore "crowd-pulse-lab/internal/storage/clickhouse"
	"crowd-pulse-lab/internal/storage/memory"
	pgstore "crowd-pulse-lab/internal/storage/postgres"
)

// createStores creates all required stores.
// Memory stores optionally receive the demo fixtures; otherwise Postgres
// holds events, snapshots and pools and ClickHouse holds liquidity.
func createStores(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (storage.Stores, func(), error) {
	if cfg.UseMemory {
		stores := storage.Stores{
			Events:    memory.NewEventStore(),
			Snapshots: memory.NewHolderSnapshotStore(),
			Pools:     memory.NewPoolAddressStore(),
			Liquidity: memory.NewLiquidityTimeseriesStore(),
		}
		if cfg.LoadFixtures {
			if err := analytics.LoadFixtures(ctx, stores.Events, stores.Snapshots, stores.Pools, stores.Liquidity); err != nil {
				return storage.Stores{}, nil, err
			}
			log.Info().Str("asset", analytics.FixtureAsset).Msg("loaded demo fixtures into memory stores")
		}
		return stores, func() {}, nil
	}

	if cfg.PostgresDSN == "" {
		return storage.Stores{}, nil, fmt.Errorf("POSTGRES_DSN is required (set storage.use_memory for in-memory storage)")
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return storage.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	stores := storage.Stores{
		Events:    pgstore.NewEventStore(pool),
		Snapshots: pgstore.NewHolderSnapshotStore(pool),
		Pools:     pgstore.NewPoolAddressStore(pool),
	}
	cleanup := func() { pool.Close() }

	// ClickHouse is optional: without it holder risk reads zero liquidity
	if cfg.ClickhouseDSN == "" {
		log.Warn().Msg("CLICKHOUSE_DSN not set, liquidity risk will read zero")
		return stores, cleanup, nil
	}

	chConn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return storage.Stores{}, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	stores.Liquidity = chstore.NewLiquidityTimeseriesStore(chConn)

	cleanup = func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}
