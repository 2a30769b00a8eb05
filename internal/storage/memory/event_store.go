package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Event // keyed by (asset, event_id)
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.Event),
	}
}

// eventKey generates a unique key for an event.
func eventKey(asset, id string) string {
	return fmt.Sprintf("%s|%s", asset, id)
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(_ context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))

	// First pass: validate and check for duplicates (existing + intra-batch)
	for _, e := range events {
		if e == nil || e.Asset == "" || e.ID == "" {
			return storage.ErrInvalidInput
		}
		key := eventKey(e.Asset, e.ID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, e := range events {
		s.data[eventKey(e.Asset, e.ID)] = cloneEvent(e)
	}

	return nil
}

// GetByAsset retrieves all events for an asset, ordered by timestamp ASC.
func (s *EventStore) GetByAsset(_ context.Context, asset string) ([]*domain.Event, error) {
	return s.filter(func(e *domain.Event) bool {
		return e.Asset == asset
	}), nil
}

// GetByTimeRange retrieves events for an asset within [start, end] (inclusive).
func (s *EventStore) GetByTimeRange(_ context.Context, asset string, start, end int64) ([]*domain.Event, error) {
	return s.filter(func(e *domain.Event) bool {
		return e.Asset == asset && e.TimestampMs >= start && e.TimestampMs <= end
	}), nil
}

func (s *EventStore) filter(keep func(*domain.Event) bool) []*domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if keep(e) {
			result = append(result, cloneEvent(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// cloneEvent copies e including its optional sentiment.
func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	if e.Sentiment != nil {
		v := *e.Sentiment
		c.Sentiment = &v
	}
	return &c
}

var _ storage.EventStore = (*EventStore)(nil)
