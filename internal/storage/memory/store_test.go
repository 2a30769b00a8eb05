package memory

import (
	"context"
	"errors"
	"testing"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

func TestEventStore_InsertAndGet(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	sentiment := 0.5
	events := []*domain.Event{
		{ID: "e2", Asset: "TKN", TimestampMs: 2000, Likes: 2},
		{ID: "e1", Asset: "TKN", TimestampMs: 1000, Likes: 1, Sentiment: &sentiment},
		{ID: "e3", Asset: "OTHER", TimestampMs: 1500},
	}

	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByAsset(ctx, "TKN")
	if err != nil {
		t.Fatalf("GetByAsset failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result))
	}
	if result[0].ID != "e1" || result[1].ID != "e2" {
		t.Errorf("Expected ascending order, got %s, %s", result[0].ID, result[1].ID)
	}

	// Returned copies must not alias stored data
	*result[0].Sentiment = -1
	again, _ := store.GetByAsset(ctx, "TKN")
	if *again[0].Sentiment != 0.5 {
		t.Errorf("store data was mutated through a returned event")
	}
}

func TestEventStore_DuplicateKey(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	e := &domain.Event{ID: "e1", Asset: "TKN", TimestampMs: 1000}
	if err := store.InsertBulk(ctx, []*domain.Event{e}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.Event{e})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Intra-batch duplicate rejects the whole batch
	err = store.InsertBulk(ctx, []*domain.Event{
		{ID: "e2", Asset: "TKN"},
		{ID: "e2", Asset: "TKN"},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	result, _ := store.GetByAsset(ctx, "TKN")
	if len(result) != 1 {
		t.Errorf("Expected failed batch to store nothing, got %d events", len(result))
	}
}

func TestEventStore_InvalidInput(t *testing.T) {
	store := NewEventStore()

	err := store.InsertBulk(context.Background(), []*domain.Event{{ID: "", Asset: "TKN"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestEventStore_GetByTimeRange(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.Event{
		{ID: "a", Asset: "TKN", TimestampMs: 1000},
		{ID: "b", Asset: "TKN", TimestampMs: 2000},
		{ID: "c", Asset: "TKN", TimestampMs: 3000},
	})

	result, err := store.GetByTimeRange(ctx, "TKN", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 events (inclusive range), got %d", len(result))
	}
}

func TestHolderSnapshotStore(t *testing.T) {
	store := NewHolderSnapshotStore()
	ctx := context.Background()

	snapshots := []*domain.HolderSnapshot{
		{Asset: "TKN", Address: "b", Amount: 2, TimestampMs: 1000},
		{Asset: "TKN", Address: "a", Amount: 1, TimestampMs: 1000},
		{Asset: "TKN", Address: "a", Amount: 3, TimestampMs: 500},
	}
	if err := store.InsertBulk(ctx, snapshots); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByAsset(ctx, "TKN")
	if err != nil {
		t.Fatalf("GetByAsset failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(result))
	}
	if result[0].TimestampMs != 500 || result[1].Address != "a" || result[2].Address != "b" {
		t.Errorf("unexpected order: %+v %+v %+v", result[0], result[1], result[2])
	}

	err = store.InsertBulk(ctx, []*domain.HolderSnapshot{snapshots[0]})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.HolderSnapshot{{Asset: "TKN", Address: "x", Amount: -1}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative amount, got %v", err)
	}
}

func TestPoolAddressStore(t *testing.T) {
	store := NewPoolAddressStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.PoolAddress{Asset: "TKN", Address: "pool-b", Label: "raydium"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, &domain.PoolAddress{Asset: "TKN", Address: "pool-a"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.Insert(ctx, &domain.PoolAddress{Asset: "TKN", Address: "pool-a"})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	result, err := store.GetByAsset(ctx, "TKN")
	if err != nil {
		t.Fatalf("GetByAsset failed: %v", err)
	}
	if len(result) != 2 || result[0].Address != "pool-a" {
		t.Errorf("unexpected pools: %+v", result)
	}
}

func TestLiquidityTimeseriesStore(t *testing.T) {
	store := NewLiquidityTimeseriesStore()
	ctx := context.Background()

	points := []*domain.LiquidityPoint{
		{Asset: "TKN", TimestampMs: 3000, Liquidity: 300},
		{Asset: "TKN", TimestampMs: 1000, Liquidity: 100},
		{Asset: "TKN", TimestampMs: 2000, Liquidity: 200},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "TKN", 1500, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 || result[0].Liquidity != 200 || result[1].Liquidity != 300 {
		t.Errorf("unexpected points: %+v", result)
	}

	err = store.InsertBulk(ctx, []*domain.LiquidityPoint{{Asset: "TKN", TimestampMs: 1000}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}
