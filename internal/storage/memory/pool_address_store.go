package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

const (
	minInt64 = math.MinInt64
	maxInt64 = math.MaxInt64
)

// PoolAddressStore is an in-memory implementation of storage.PoolAddressStore.
type PoolAddressStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolAddress // keyed by (asset, address)
}

// NewPoolAddressStore creates a new in-memory pool address store.
func NewPoolAddressStore() *PoolAddressStore {
	return &PoolAddressStore{
		data: make(map[string]*domain.PoolAddress),
	}
}

// Insert adds a pool address. Returns ErrDuplicateKey if exists.
func (s *PoolAddressStore) Insert(_ context.Context, p *domain.PoolAddress) error {
	if p == nil || p.Asset == "" || p.Address == "" {
		return storage.ErrInvalidInput
	}

	key := fmt.Sprintf("%s|%s", p.Asset, p.Address)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	c := *p
	s.data[key] = &c
	return nil
}

// GetByAsset retrieves all pool addresses for an asset, ordered by address.
func (s *PoolAddressStore) GetByAsset(_ context.Context, asset string) ([]*domain.PoolAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolAddress
	for _, p := range s.data {
		if p.Asset == asset {
			c := *p
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return result, nil
}

var _ storage.PoolAddressStore = (*PoolAddressStore)(nil)
