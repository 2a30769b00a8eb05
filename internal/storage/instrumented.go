package storage

import (
	"context"
	"time"

	"crowd-pulse-lab/internal/domain"
)

// QueryRecorder receives per-operation timings. *observability.Metrics satisfies it.
type QueryRecorder interface {
	RecordDBQuery(operation string, d time.Duration, err error)
}

// Stores groups the four stores the analytics runner reads.
type Stores struct {
	Events    EventStore
	Snapshots HolderSnapshotStore
	Pools     PoolAddressStore
	Liquidity LiquidityTimeseriesStore
}

// Instrument wraps every non-nil store so each call is timed under an
// operation label such as "events.get_by_asset".
func Instrument(s Stores, rec QueryRecorder) Stores {
	if rec == nil {
		return s
	}
	out := Stores{}
	if s.Events != nil {
		out.Events = &instrumentedEventStore{next: s.Events, rec: rec}
	}
	if s.Snapshots != nil {
		out.Snapshots = &instrumentedSnapshotStore{next: s.Snapshots, rec: rec}
	}
	if s.Pools != nil {
		out.Pools = &instrumentedPoolStore{next: s.Pools, rec: rec}
	}
	if s.Liquidity != nil {
		out.Liquidity = &instrumentedLiquidityStore{next: s.Liquidity, rec: rec}
	}
	return out
}

// Compile-time interface checks.
var (
	_ EventStore               = (*instrumentedEventStore)(nil)
	_ HolderSnapshotStore      = (*instrumentedSnapshotStore)(nil)
	_ PoolAddressStore         = (*instrumentedPoolStore)(nil)
	_ LiquidityTimeseriesStore = (*instrumentedLiquidityStore)(nil)
)

func observe(rec QueryRecorder, op string, start time.Time, err error) {
	rec.RecordDBQuery(op, time.Since(start), err)
}

type instrumentedEventStore struct {
	next EventStore
	rec  QueryRecorder
}

func (s *instrumentedEventStore) InsertBulk(ctx context.Context, events []*domain.Event) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, events)
	observe(s.rec, "events.insert_bulk", start, err)
	return err
}

func (s *instrumentedEventStore) GetByAsset(ctx context.Context, asset string) ([]*domain.Event, error) {
	start := time.Now()
	out, err := s.next.GetByAsset(ctx, asset)
	observe(s.rec, "events.get_by_asset", start, err)
	return out, err
}

func (s *instrumentedEventStore) GetByTimeRange(ctx context.Context, asset string, from, to int64) ([]*domain.Event, error) {
	start := time.Now()
	out, err := s.next.GetByTimeRange(ctx, asset, from, to)
	observe(s.rec, "events.get_by_time_range", start, err)
	return out, err
}

type instrumentedSnapshotStore struct {
	next HolderSnapshotStore
	rec  QueryRecorder
}

func (s *instrumentedSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.HolderSnapshot) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, snapshots)
	observe(s.rec, "snapshots.insert_bulk", start, err)
	return err
}

func (s *instrumentedSnapshotStore) GetByAsset(ctx context.Context, asset string) ([]*domain.HolderSnapshot, error) {
	start := time.Now()
	out, err := s.next.GetByAsset(ctx, asset)
	observe(s.rec, "snapshots.get_by_asset", start, err)
	return out, err
}

func (s *instrumentedSnapshotStore) GetByTimeRange(ctx context.Context, asset string, from, to int64) ([]*domain.HolderSnapshot, error) {
	start := time.Now()
	out, err := s.next.GetByTimeRange(ctx, asset, from, to)
	observe(s.rec, "snapshots.get_by_time_range", start, err)
	return out, err
}

type instrumentedPoolStore struct {
	next PoolAddressStore
	rec  QueryRecorder
}

func (s *instrumentedPoolStore) Insert(ctx context.Context, p *domain.PoolAddress) error {
	start := time.Now()
	err := s.next.Insert(ctx, p)
	observe(s.rec, "pools.insert", start, err)
	return err
}

func (s *instrumentedPoolStore) GetByAsset(ctx context.Context, asset string) ([]*domain.PoolAddress, error) {
	start := time.Now()
	out, err := s.next.GetByAsset(ctx, asset)
	observe(s.rec, "pools.get_by_asset", start, err)
	return out, err
}

type instrumentedLiquidityStore struct {
	next LiquidityTimeseriesStore
	rec  QueryRecorder
}

func (s *instrumentedLiquidityStore) InsertBulk(ctx context.Context, points []*domain.LiquidityPoint) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, points)
	observe(s.rec, "liquidity.insert_bulk", start, err)
	return err
}

func (s *instrumentedLiquidityStore) GetByAsset(ctx context.Context, asset string) ([]*domain.LiquidityPoint, error) {
	start := time.Now()
	out, err := s.next.GetByAsset(ctx, asset)
	observe(s.rec, "liquidity.get_by_asset", start, err)
	return out, err
}

func (s *instrumentedLiquidityStore) GetByTimeRange(ctx context.Context, asset string, from, to int64) ([]*domain.LiquidityPoint, error) {
	start := time.Now()
	out, err := s.next.GetByTimeRange(ctx, asset, from, to)
	observe(s.rec, "liquidity.get_by_time_range", start, err)
	return out, err
}
