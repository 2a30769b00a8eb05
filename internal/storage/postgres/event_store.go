package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const insertEventQuery = `
	INSERT INTO engagement_events (
		asset, event_id, author, timestamp_ms, likes, comments, retweets, impressions, author_followers, sentiment
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const selectEventColumns = `
	SELECT asset, event_id, author, timestamp_ms, likes, comments, retweets, impressions, author_followers, sentiment
	FROM engagement_events
`

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if e == nil || e.Asset == "" || e.ID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertEventQuery,
			e.Asset,
			e.ID,
			e.Author,
			e.TimestampMs,
			e.Likes,
			e.Comments,
			e.Retweets,
			e.Impressions,
			e.AuthorFollowers,
			e.Sentiment,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range events {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert event in bulk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByAsset retrieves all events for an asset, ordered by timestamp ASC.
func (s *EventStore) GetByAsset(ctx context.Context, asset string) ([]*domain.Event, error) {
	query := selectEventColumns + `
		WHERE asset = $1
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, asset)
	if err != nil {
		return nil, fmt.Errorf("get events by asset: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByTimeRange retrieves events for an asset within [start, end] (inclusive).
func (s *EventStore) GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.Event, error) {
	query := selectEventColumns + `
		WHERE asset = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, asset, start, end)
	if err != nil {
		return nil, fmt.Errorf("get events by time range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents scans multiple rows into a slice of Event.
func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event

	for rows.Next() {
		var e domain.Event

		err := rows.Scan(
			&e.Asset,
			&e.ID,
			&e.Author,
			&e.TimestampMs,
			&e.Likes,
			&e.Comments,
			&e.Retweets,
			&e.Impressions,
			&e.AuthorFollowers,
			&e.Sentiment,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}
