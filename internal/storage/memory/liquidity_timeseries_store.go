package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// LiquidityTimeseriesStore is an in-memory implementation of storage.LiquidityTimeseriesStore.
type LiquidityTimeseriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LiquidityPoint // keyed by (asset, timestamp_ms)
}

// NewLiquidityTimeseriesStore creates a new in-memory liquidity timeseries store.
func NewLiquidityTimeseriesStore() *LiquidityTimeseriesStore {
	return &LiquidityTimeseriesStore{
		data: make(map[string]*domain.LiquidityPoint),
	}
}

// liquidityTsKey generates a unique key for a liquidity point.
func liquidityTsKey(asset string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", asset, timestampMs)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *LiquidityTimeseriesStore) InsertBulk(_ context.Context, points []*domain.LiquidityPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	for _, p := range points {
		if p == nil || p.Asset == "" {
			return storage.ErrInvalidInput
		}
		key := liquidityTsKey(p.Asset, p.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		c := *p
		s.data[liquidityTsKey(p.Asset, p.TimestampMs)] = &c
	}

	return nil
}

// GetByAsset retrieves all points for an asset, ordered by timestamp ASC.
func (s *LiquidityTimeseriesStore) GetByAsset(ctx context.Context, asset string) ([]*domain.LiquidityPoint, error) {
	return s.GetByTimeRange(ctx, asset, minInt64, maxInt64)
}

// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
func (s *LiquidityTimeseriesStore) GetByTimeRange(_ context.Context, asset string, start, end int64) ([]*domain.LiquidityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiquidityPoint
	for _, p := range s.data {
		if p.Asset == asset && p.TimestampMs >= start && p.TimestampMs <= end {
			c := *p
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.LiquidityTimeseriesStore = (*LiquidityTimeseriesStore)(nil)
