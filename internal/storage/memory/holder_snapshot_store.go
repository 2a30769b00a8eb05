package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// HolderSnapshotStore is an in-memory implementation of storage.HolderSnapshotStore.
type HolderSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.HolderSnapshot // keyed by (asset, address, timestamp_ms)
}

// NewHolderSnapshotStore creates a new in-memory holder snapshot store.
func NewHolderSnapshotStore() *HolderSnapshotStore {
	return &HolderSnapshotStore{
		data: make(map[string]*domain.HolderSnapshot),
	}
}

func snapshotKey(asset, address string, timestampMs int64) string {
	return fmt.Sprintf("%s|%s|%d", asset, address, timestampMs)
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *HolderSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.HolderSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snapshots))
	for _, h := range snapshots {
		if h == nil || h.Asset == "" || h.Address == "" || h.Amount < 0 {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(h.Asset, h.Address, h.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, h := range snapshots {
		c := *h
		s.data[snapshotKey(h.Asset, h.Address, h.TimestampMs)] = &c
	}

	return nil
}

// GetByAsset retrieves all snapshots for an asset, ordered by timestamp ASC.
func (s *HolderSnapshotStore) GetByAsset(ctx context.Context, asset string) ([]*domain.HolderSnapshot, error) {
	return s.GetByTimeRange(ctx, asset, minInt64, maxInt64)
}

// GetByTimeRange retrieves snapshots for an asset within [start, end] (inclusive).
func (s *HolderSnapshotStore) GetByTimeRange(_ context.Context, asset string, start, end int64) ([]*domain.HolderSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.HolderSnapshot
	for _, h := range s.data {
		if h.Asset == asset && h.TimestampMs >= start && h.TimestampMs <= end {
			c := *h
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].Address < result[j].Address
	})

	return result, nil
}

var _ storage.HolderSnapshotStore = (*HolderSnapshotStore)(nil)
