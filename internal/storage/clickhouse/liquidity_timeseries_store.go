package clickhouse

import (
	"context"
	"fmt"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// LiquidityTimeseriesStore implements storage.LiquidityTimeseriesStore using ClickHouse.
type LiquidityTimeseriesStore struct {
	conn *Conn
}

// NewLiquidityTimeseriesStore creates a new LiquidityTimeseriesStore.
func NewLiquidityTimeseriesStore(conn *Conn) *LiquidityTimeseriesStore {
	return &LiquidityTimeseriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LiquidityTimeseriesStore = (*LiquidityTimeseriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate.
// MergeTree does not enforce keys, so duplicates are checked before insert.
func (s *LiquidityTimeseriesStore) InsertBulk(ctx context.Context, points []*domain.LiquidityPoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		asset       string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.Asset == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.Asset, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, p := range points {
		exists, err := s.exists(ctx, p.Asset, p.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO liquidity_timeseries (asset, timestamp_ms, liquidity)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.Asset, p.TimestampMs, p.Liquidity); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAsset retrieves all points for an asset, ordered by timestamp ASC.
func (s *LiquidityTimeseriesStore) GetByAsset(ctx context.Context, asset string) ([]*domain.LiquidityPoint, error) {
	query := `
		SELECT asset, timestamp_ms, liquidity
		FROM liquidity_timeseries
		WHERE asset = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, asset)
	if err != nil {
		return nil, fmt.Errorf("query by asset: %w", err)
	}
	defer rows.Close()

	return scanLiquidityPoints(rows)
}

// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
func (s *LiquidityTimeseriesStore) GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.LiquidityPoint, error) {
	query := `
		SELECT asset, timestamp_ms, liquidity
		FROM liquidity_timeseries
		WHERE asset = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, asset, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanLiquidityPoints(rows)
}

// exists checks if a point with the given key exists.
func (s *LiquidityTimeseriesStore) exists(ctx context.Context, asset string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM liquidity_timeseries
		WHERE asset = ? AND timestamp_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, asset, timestampMs).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanLiquidityPoints scans multiple rows.
func scanLiquidityPoints(rows chRows) ([]*domain.LiquidityPoint, error) {
	var points []*domain.LiquidityPoint

	for rows.Next() {
		var p domain.LiquidityPoint
		if err := rows.Scan(&p.Asset, &p.TimestampMs, &p.Liquidity); err != nil {
			return nil, fmt.Errorf("scan liquidity row: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidity rows: %w", err)
	}

	return points, nil
}
