package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// HolderSnapshotStore implements storage.HolderSnapshotStore using PostgreSQL.
// Amounts are stored as NUMERIC and converted through decimal so large
// balances round-trip without float formatting loss.
type HolderSnapshotStore struct {
	pool *Pool
}

// NewHolderSnapshotStore creates a new HolderSnapshotStore.
func NewHolderSnapshotStore(pool *Pool) *HolderSnapshotStore {
	return &HolderSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HolderSnapshotStore = (*HolderSnapshotStore)(nil)

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
func (s *HolderSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.HolderSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, h := range snapshots {
		if h == nil || h.Asset == "" || h.Address == "" || h.Amount < 0 {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO holder_snapshots (asset, address, timestamp_ms, amount)
		VALUES ($1, $2, $3, $4::numeric)
	`

	for _, h := range snapshots {
		_, err := tx.Exec(ctx, query,
			h.Asset,
			h.Address,
			h.TimestampMs,
			decimal.NewFromFloat(h.Amount).String(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isCheckViolation(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("insert holder snapshot in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByAsset retrieves all snapshots for an asset, ordered by timestamp ASC.
func (s *HolderSnapshotStore) GetByAsset(ctx context.Context, asset string) ([]*domain.HolderSnapshot, error) {
	query := `
		SELECT asset, address, timestamp_ms, amount::text
		FROM holder_snapshots
		WHERE asset = $1
		ORDER BY timestamp_ms ASC, address ASC
	`

	rows, err := s.pool.Query(ctx, query, asset)
	if err != nil {
		return nil, fmt.Errorf("get holder snapshots by asset: %w", err)
	}
	defer rows.Close()

	return scanHolderSnapshots(rows)
}

// GetByTimeRange retrieves snapshots for an asset within [start, end] (inclusive).
func (s *HolderSnapshotStore) GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.HolderSnapshot, error) {
	query := `
		SELECT asset, address, timestamp_ms, amount::text
		FROM holder_snapshots
		WHERE asset = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC, address ASC
	`

	rows, err := s.pool.Query(ctx, query, asset, start, end)
	if err != nil {
		return nil, fmt.Errorf("get holder snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanHolderSnapshots(rows)
}

// scanHolderSnapshots scans multiple rows into a slice of HolderSnapshot.
func scanHolderSnapshots(rows pgx.Rows) ([]*domain.HolderSnapshot, error) {
	var snapshots []*domain.HolderSnapshot

	for rows.Next() {
		var h domain.HolderSnapshot
		var amount string

		if err := rows.Scan(&h.Asset, &h.Address, &h.TimestampMs, &amount); err != nil {
			return nil, fmt.Errorf("scan holder snapshot row: %w", err)
		}

		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse holder amount %q: %w", amount, err)
		}
		h.Amount = d.InexactFloat64()

		snapshots = append(snapshots, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holder snapshot rows: %w", err)
	}

	return snapshots, nil
}
