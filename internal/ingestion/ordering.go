package ingestion

import (
	"errors"
	"sort"

	"crowd-pulse-lab/internal/domain"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortEvents orders events by (timestamp_ms ASC, asset ASC, id ASC).
func SortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// ValidateEventOrdering checks that events are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateEventOrdering(events []*domain.Event) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(events[i-1], events[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// DedupeEvents drops repeated (asset, id) pairs, keeping the last delivery,
// which carries the freshest counters. Input order is preserved otherwise.
func DedupeEvents(events []*domain.Event) []*domain.Event {
	last := make(map[string]int, len(events))
	for i, e := range events {
		last[e.Asset+"|"+e.ID] = i
	}
	if len(last) == len(events) {
		return events
	}

	out := make([]*domain.Event, 0, len(last))
	for i, e := range events {
		if last[e.Asset+"|"+e.ID] == i {
			out = append(out, e)
		}
	}
	return out
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp_ms ASC, asset ASC, id ASC)
func compareEvents(a, b *domain.Event) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Asset != b.Asset {
		if a.Asset < b.Asset {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}
