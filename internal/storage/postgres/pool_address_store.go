package postgres

import (
	"context"
	"fmt"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// PoolAddressStore implements storage.PoolAddressStore using PostgreSQL.
type PoolAddressStore struct {
	pool *Pool
}

// NewPoolAddressStore creates a new PoolAddressStore.
func NewPoolAddressStore(pool *Pool) *PoolAddressStore {
	return &PoolAddressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolAddressStore = (*PoolAddressStore)(nil)

// Insert adds a pool address. Returns ErrDuplicateKey if (asset, address) exists.
func (s *PoolAddressStore) Insert(ctx context.Context, p *domain.PoolAddress) error {
	if p == nil || p.Asset == "" || p.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO liquidity_pools (asset, address, label)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, p.Asset, p.Address, p.Label)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool address: %w", err)
	}
	return nil
}

// GetByAsset retrieves all pool addresses for an asset, ordered by address.
func (s *PoolAddressStore) GetByAsset(ctx context.Context, asset string) ([]*domain.PoolAddress, error) {
	query := `
		SELECT asset, address, label
		FROM liquidity_pools
		WHERE asset = $1
		ORDER BY address ASC
	`

	rows, err := s.pool.Query(ctx, query, asset)
	if err != nil {
		return nil, fmt.Errorf("get pool addresses by asset: %w", err)
	}
	defer rows.Close()

	var pools []*domain.PoolAddress
	for rows.Next() {
		var p domain.PoolAddress
		if err := rows.Scan(&p.Asset, &p.Address, &p.Label); err != nil {
			return nil, fmt.Errorf("scan pool address row: %w", err)
		}
		pools = append(pools, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool address rows: %w", err)
	}

	return pools, nil
}
