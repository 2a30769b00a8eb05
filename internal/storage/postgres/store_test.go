package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

func TestEventStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEventStore(pool)

	events := []*domain.Event{
		{ID: "e2", Asset: "TKN", Author: "bob", TimestampMs: 1700000002000, Likes: 5, Retweets: 1, AuthorFollowers: 100},
		{ID: "e1", Asset: "TKN", Author: "alice", TimestampMs: 1700000001000, Likes: 10, Comments: 2, Impressions: 400, AuthorFollowers: 50000, Sentiment: ptr(0.75)},
		{ID: "e3", Asset: "OTHER", TimestampMs: 1700000001500},
	}
	require.NoError(t, store.InsertBulk(ctx, events))

	got, err := store.GetByAsset(ctx, "TKN")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "alice", got[0].Author)
	assert.Equal(t, int64(10), got[0].Likes)
	assert.Equal(t, int64(400), got[0].Impressions)
	assert.Equal(t, int64(50000), got[0].AuthorFollowers)
	require.NotNil(t, got[0].Sentiment)
	assert.InDelta(t, 0.75, *got[0].Sentiment, 1e-12)
	assert.Nil(t, got[1].Sentiment)

	ranged, err := store.GetByTimeRange(ctx, "TKN", 1700000001500, 1700000003000)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "e2", ranged[0].ID)
}

func TestEventStore_InsertBulk_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEventStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Event{{ID: "e1", Asset: "TKN", TimestampMs: 1000}}))

	err := store.InsertBulk(ctx, []*domain.Event{
		{ID: "e2", Asset: "TKN", TimestampMs: 2000},
		{ID: "e1", Asset: "TKN", TimestampMs: 1000},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Whole batch rolled back
	got, err := store.GetByAsset(ctx, "TKN")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	err = store.InsertBulk(ctx, []*domain.Event{{ID: "", Asset: "TKN"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestHolderSnapshotStore_DecimalRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewHolderSnapshotStore(pool)

	snapshots := []*domain.HolderSnapshot{
		{Asset: "TKN", Address: "whale", Amount: 123456789012.5, TimestampMs: 2000},
		{Asset: "TKN", Address: "retail", Amount: 0.000000001, TimestampMs: 1000},
	}
	require.NoError(t, store.InsertBulk(ctx, snapshots))

	got, err := store.GetByAsset(ctx, "TKN")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "retail", got[0].Address)
	assert.InDelta(t, 0.000000001, got[0].Amount, 1e-15)
	assert.Equal(t, 123456789012.5, got[1].Amount)

	err = store.InsertBulk(ctx, []*domain.HolderSnapshot{snapshots[0]})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	ranged, err := store.GetByTimeRange(ctx, "TKN", 1500, 2500)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "whale", ranged[0].Address)
}

func TestPoolAddressStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolAddressStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.PoolAddress{Asset: "TKN", Address: "pool-b", Label: "raydium"}))
	require.NoError(t, store.Insert(ctx, &domain.PoolAddress{Asset: "TKN", Address: "pool-a"}))

	err := store.Insert(ctx, &domain.PoolAddress{Asset: "TKN", Address: "pool-b"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByAsset(ctx, "TKN")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pool-a", got[0].Address)
	assert.Equal(t, "raydium", got[1].Label)
}
