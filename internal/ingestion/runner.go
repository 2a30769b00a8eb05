package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// ErrSourceClosed is returned when the event source stops before ctx is done.
var ErrSourceClosed = errors.New("event source closed")

// shutdownFlushTimeout bounds the final flush after ctx is cancelled.
const shutdownFlushTimeout = 10 * time.Second

// Runner drains an EventSource into an EventStore in ordered batches.
type Runner struct {
	source        EventSource
	store         storage.EventStore
	batchSize     int
	flushInterval time.Duration
	log           zerolog.Logger
	recorder      Recorder

	buffer []*domain.Event
	stored atomic.Int64
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source        EventSource
	Store         storage.EventStore
	BatchSize     int           // Default: 100 - flush when this many events are buffered
	FlushInterval time.Duration // Default: 2s - force flush buffered events periodically
	Logger        zerolog.Logger
	Recorder      Recorder
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	flushInterval := opts.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}

	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	return &Runner{
		source:        opts.Source,
		store:         opts.Store,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		log:           opts.Logger,
		recorder:      rec,
	}
}

// Stored returns the number of events written so far.
func (r *Runner) Stored() int64 {
	return r.stored.Load()
}

// Run consumes the source until ctx is done. Buffered events are flushed
// before returning.
func (r *Runner) Run(ctx context.Context) error {
	events, err := r.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	r.log.Info().Int("batch_size", r.batchSize).Dur("flush_interval", r.flushInterval).Msg("ingestion started")

	for {
		select {
		case <-ctx.Done():
			r.shutdown(ctx)
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				r.shutdown(ctx)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSourceClosed
			}
			r.buffer = append(r.buffer, event)
			if len(r.buffer) >= r.batchSize {
				r.flush(ctx)
			}

		case <-flushTicker.C:
			r.flush(ctx)
		}
	}
}

func (r *Runner) shutdown(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
	defer cancel()
	r.flush(flushCtx)
	r.log.Info().Int64("stored", r.Stored()).Msg("ingestion stopped")
}

// flush writes the buffer as one ordered batch. A batch rejected for a
// duplicate (redelivery after reconnect) is retried event by event.
func (r *Runner) flush(ctx context.Context) {
	if len(r.buffer) == 0 {
		return
	}
	batch := DedupeEvents(r.buffer)
	r.buffer = nil
	SortEvents(batch)

	err := r.store.InsertBulk(ctx, batch)
	switch {
	case err == nil:
		r.stored.Add(int64(len(batch)))
		r.recorder.RecordEventsStored(len(batch))
		r.log.Debug().Int("events", len(batch)).Msg("batch stored")
	case errors.Is(err, storage.ErrDuplicateKey):
		r.insertEach(ctx, batch)
	default:
		r.recorder.RecordIngestError(ErrorTypeStore)
		r.log.Error().Err(err).Int("events", len(batch)).Msg("dropping batch")
	}
}

func (r *Runner) insertEach(ctx context.Context, batch []*domain.Event) {
	stored := 0
	for _, e := range batch {
		err := r.store.InsertBulk(ctx, []*domain.Event{e})
		switch {
		case err == nil:
			stored++
		case errors.Is(err, storage.ErrDuplicateKey):
			r.recorder.RecordIngestError(ErrorTypeDuplicate)
		default:
			r.recorder.RecordIngestError(ErrorTypeStore)
			r.log.Error().Err(err).Str("asset", e.Asset).Str("id", e.ID).Msg("dropping event")
		}
	}
	if stored > 0 {
		r.stored.Add(int64(stored))
		r.recorder.RecordEventsStored(stored)
	}
}
