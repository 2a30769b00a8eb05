package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/lookup"
	"crowd-pulse-lab/internal/normalization"
	"crowd-pulse-lab/internal/storage"
)

// Recorder receives analysis telemetry. *observability.Metrics satisfies it.
type Recorder interface {
	RecordAnalysis(d time.Duration, err error)
	RecordTimestampsFilled(n int)
}

// Request selects the asset and window to analyze.
// A zero StartMs and EndMs reads the asset's full history.
type Request struct {
	Asset           string
	IntervalMinutes int // overrides Config.IntervalMinutes when > 0
	StartMs         int64
	EndMs           int64
}

// Runner loads inputs from storage and runs the Engine.
// Flow: load events → fill timestamps → load holders → analyze
type Runner struct {
	// Stores
	eventStore     storage.EventStore
	snapshotStore  storage.HolderSnapshotStore
	poolStore      storage.PoolAddressStore
	liquidityStore storage.LiquidityTimeseriesStore

	cfg      Config
	log      zerolog.Logger
	recorder Recorder
	now      func() time.Time
}

// Options for creating Runner.
type Options struct {
	// Required store
	EventStore storage.EventStore

	// Optional stores; a nil store contributes no data
	HolderSnapshotStore      storage.HolderSnapshotStore
	PoolAddressStore         storage.PoolAddressStore
	LiquidityTimeseriesStore storage.LiquidityTimeseriesStore

	Config   Config
	Logger   zerolog.Logger
	Recorder Recorder
	Now      func() time.Time // defaults to time.Now
}

// NewRunner creates a new Runner.
func NewRunner(opts Options) *Runner {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		eventStore:     opts.EventStore,
		snapshotStore:  opts.HolderSnapshotStore,
		poolStore:      opts.PoolAddressStore,
		liquidityStore: opts.LiquidityTimeseriesStore,
		cfg:            opts.Config,
		log:            opts.Logger,
		recorder:       opts.Recorder,
		now:            now,
	}
}

// Config returns the runner's engine parameters.
func (r *Runner) Config() Config {
	return r.cfg
}

// IntervalFor returns the bucket width req resolves to.
func (r *Runner) IntervalFor(req Request) int {
	if req.IntervalMinutes > 0 {
		return req.IntervalMinutes
	}
	return r.cfg.IntervalMinutes
}

// Run analyzes one asset.
func (r *Runner) Run(ctx context.Context, req Request) (report *Report, err error) {
	start := r.now()
	defer func() {
		if r.recorder != nil {
			r.recorder.RecordAnalysis(r.now().Sub(start), err)
		}
	}()

	req.Asset = strings.TrimSpace(req.Asset)
	if req.Asset == "" {
		return nil, fmt.Errorf("%w: asset is required", ErrInvalidRequest)
	}
	if req.StartMs > 0 && req.EndMs == 0 {
		req.EndMs = r.now().UnixMilli()
	}
	if req.StartMs > req.EndMs {
		return nil, fmt.Errorf("%w: start %d after end %d", ErrInvalidRequest, req.StartMs, req.EndMs)
	}
	if r.eventStore == nil {
		return nil, &UpstreamError{Op: "load events", Err: fmt.Errorf("event store not configured")}
	}

	cfg := r.cfg
	cfg.IntervalMinutes = r.IntervalFor(req)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	log := r.log.With().Str("asset", req.Asset).Int("interval_minutes", cfg.IntervalMinutes).Logger()

	// Phase 1: engagement events
	events, err := r.loadEvents(ctx, req)
	if err != nil {
		return nil, err
	}
	events, filled := normalization.FillMissingTimestamps(events, r.now())
	if filled > 0 {
		log.Warn().Int("count", filled).Msg("substituted missing event timestamps with current time")
		if r.recorder != nil {
			r.recorder.RecordTimestampsFilled(filled)
		}
	}

	// Phase 2: holder inputs
	in := Input{Asset: req.Asset, Events: events}
	if in.Snapshots, err = r.loadSnapshots(ctx, req); err != nil {
		return nil, err
	}
	if in.PoolAddresses, err = r.loadPools(ctx, req.Asset); err != nil {
		return nil, err
	}
	if in.Liquidity, err = r.loadLiquidity(ctx, req); err != nil {
		return nil, err
	}

	// Phase 3: analysis
	report, err = NewEngine(cfg).Analyze(in)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", req.Asset, err)
	}

	log.Debug().
		Int("events", report.EventCount).
		Int("buckets", report.BucketCount).
		Int("risk_points", len(report.Risk)).
		Msg("analysis complete")

	return report, nil
}

func (r *Runner) ranged(req Request) bool {
	return req.StartMs != 0 || req.EndMs != 0
}

func (r *Runner) loadEvents(ctx context.Context, req Request) ([]domain.Event, error) {
	var (
		rows []*domain.Event
		err  error
	)
	if r.ranged(req) {
		rows, err = r.eventStore.GetByTimeRange(ctx, req.Asset, req.StartMs, req.EndMs)
	} else {
		rows, err = r.eventStore.GetByAsset(ctx, req.Asset)
	}
	if err != nil {
		return nil, &UpstreamError{Op: "load events", Err: err}
	}

	events := make([]domain.Event, 0, len(rows))
	for _, e := range rows {
		if e != nil {
			events = append(events, *e)
		}
	}
	return events, nil
}

func (r *Runner) loadSnapshots(ctx context.Context, req Request) ([]domain.HolderSnapshot, error) {
	if r.snapshotStore == nil {
		return nil, nil
	}

	var (
		rows []*domain.HolderSnapshot
		err  error
	)
	if r.ranged(req) {
		rows, err = r.snapshotStore.GetByTimeRange(ctx, req.Asset, req.StartMs, req.EndMs)
	} else {
		rows, err = r.snapshotStore.GetByAsset(ctx, req.Asset)
	}
	if err != nil {
		return nil, &UpstreamError{Op: "load holder snapshots", Err: err}
	}

	snapshots := make([]domain.HolderSnapshot, 0, len(rows))
	for _, s := range rows {
		if s != nil {
			snapshots = append(snapshots, *s)
		}
	}
	return snapshots, nil
}

func (r *Runner) loadPools(ctx context.Context, asset string) ([]string, error) {
	if r.poolStore == nil {
		return nil, nil
	}

	rows, err := r.poolStore.GetByAsset(ctx, asset)
	if err != nil {
		return nil, &UpstreamError{Op: "load pool addresses", Err: err}
	}

	addresses := make([]string, 0, len(rows))
	for _, p := range rows {
		if p != nil {
			addresses = append(addresses, p.Address)
		}
	}
	return addresses, nil
}

func (r *Runner) loadLiquidity(ctx context.Context, req Request) (lookup.LiquidityFunc, error) {
	if r.liquidityStore == nil {
		return nil, nil
	}

	var (
		rows []*domain.LiquidityPoint
		err  error
	)
	if r.ranged(req) {
		rows, err = r.liquidityStore.GetByTimeRange(ctx, req.Asset, req.StartMs, req.EndMs)
	} else {
		rows, err = r.liquidityStore.GetByAsset(ctx, req.Asset)
	}
	if err != nil {
		return nil, &UpstreamError{Op: "load liquidity", Err: err}
	}

	points := make([]domain.LiquidityPoint, 0, len(rows))
	for _, p := range rows {
		if p != nil {
			points = append(points, *p)
		}
	}
	return lookup.FromPoints(points), nil
}
