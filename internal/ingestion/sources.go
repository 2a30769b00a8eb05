package ingestion

import (
	"context"

	"crowd-pulse-lab/internal/domain"
)

// EventSource provides a live stream of engagement events.
type EventSource interface {
	// Subscribe returns a channel of events. Events may be unordered and may
	// repeat after a reconnect; Runner enforces ordering and the storage
	// layer rejects duplicates. The channel is closed when ctx is done.
	Subscribe(ctx context.Context) (<-chan *domain.Event, error)
}
