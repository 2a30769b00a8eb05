package storage

import (
	"context"

	"crowd-pulse-lab/internal/domain"
)

// EventStore provides access to engagement_events storage.
type EventStore interface {
	// InsertBulk adds multiple events atomically. Fails entire batch on duplicate (asset, event_id).
	InsertBulk(ctx context.Context, events []*domain.Event) error

	// GetByAsset retrieves all events for an asset, ordered by timestamp ASC.
	GetByAsset(ctx context.Context, asset string) ([]*domain.Event, error)

	// GetByTimeRange retrieves events for an asset within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.Event, error)
}

// HolderSnapshotStore provides access to holder_snapshots storage.
type HolderSnapshotStore interface {
	// InsertBulk adds multiple snapshots atomically. Fails entire batch on duplicate (asset, address, timestamp_ms).
	InsertBulk(ctx context.Context, snapshots []*domain.HolderSnapshot) error

	// GetByAsset retrieves all snapshots for an asset, ordered by timestamp ASC.
	GetByAsset(ctx context.Context, asset string) ([]*domain.HolderSnapshot, error)

	// GetByTimeRange retrieves snapshots for an asset within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.HolderSnapshot, error)
}

// PoolAddressStore provides access to liquidity_pools storage.
type PoolAddressStore interface {
	// Insert adds a pool address. Returns ErrDuplicateKey if (asset, address) exists.
	Insert(ctx context.Context, p *domain.PoolAddress) error

	// GetByAsset retrieves all pool addresses for an asset, ordered by address.
	GetByAsset(ctx context.Context, asset string) ([]*domain.PoolAddress, error)
}

// LiquidityTimeseriesStore provides access to liquidity_timeseries storage.
type LiquidityTimeseriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (asset, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.LiquidityPoint) error

	// GetByAsset retrieves all points for an asset, ordered by timestamp ASC.
	GetByAsset(ctx context.Context, asset string) ([]*domain.LiquidityPoint, error)

	// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.LiquidityPoint, error)
}
