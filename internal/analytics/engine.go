// Package analytics runs the full engagement and holder-risk computation for
// one asset: a pure Engine, a Runner that loads its inputs from storage and
// a Service that fronts the Runner with a stale-while-revalidate cache.
package analytics

import (
	"fmt"

	"crowd-pulse-lab/internal/composite"
	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/engagement"
	"crowd-pulse-lab/internal/holders"
	"crowd-pulse-lab/internal/indicators"
	"crowd-pulse-lab/internal/lookup"
	"crowd-pulse-lab/internal/momentum"
	"crowd-pulse-lab/internal/normalization"
)

// Input is an immutable snapshot of everything one analysis needs.
type Input struct {
	Asset         string
	Events        []domain.Event
	Snapshots     []domain.HolderSnapshot
	PoolAddresses []string
	Liquidity     lookup.LiquidityFunc
}

// Engine computes a Report from an Input. It holds only configuration and
// is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze runs every component over in.
// Flow: resample → SEI → {EMA, RSI, MACD, StochRSI, velocity, spikes} → FOMO, hype;
// holder risk runs on the snapshots independently.
func (e *Engine) Analyze(in Input) (*Report, error) {
	cfg := e.cfg

	buckets := normalization.BucketEvents(in.Events, cfg.IntervalMinutes)

	sei := engagement.SEI(buckets, cfg.Engagement)
	views := engagement.Views(buckets)
	relative := engagement.RelativeSpike(sei, cfg.Engagement.SpikeWindow)

	bins, err := composite.BuildFOMOBins(sei, relative, views)
	if err != nil {
		return nil, fmt.Errorf("build fomo bins: %w", err)
	}

	lp := holders.PoolSet(in.Snapshots, in.PoolAddresses, cfg.Holders)

	report := &Report{
		Asset:           in.Asset,
		IntervalMinutes: cfg.IntervalMinutes,
		EventCount:      len(in.Events),
		BucketCount:     len(buckets),

		SEI:           sei,
		SEIVelocity:   momentum.Velocity(sei, in.Events, cfg.IntervalMinutes, cfg.Momentum),
		SEIEMA:        indicators.EMA(sei, cfg.EMAPeriod),
		FOMO:          composite.FOMOIndex(bins),
		RSI:           indicators.RSI(sei, cfg.RSI.Period, cfg.RSI.Method),
		MACD:          indicators.MACD(sei, cfg.MACD.Fast, cfg.MACD.Slow, cfg.MACD.Signal),
		StochRSI:      indicators.StochasticRSI(sei, cfg.StochRSI.RSIPeriod, cfg.StochRSI.StochPeriod, cfg.StochRSI.SmoothK, cfg.StochRSI.SmoothD),
		Spikes:        momentum.DetectSpikes(sei, cfg.Momentum.SpikeK),
		Views:         views,
		RelativeSpike: relative,
		Hype:          domain.Finite(composite.Hype(buckets, cfg.Hype)),
		HypeSeries:    composite.HypeSeries(buckets, cfg.Hype),

		Risk:          holders.Analyze(in.Snapshots, lp, in.Liquidity, cfg.Holders),
		ClassBalances: holders.ClassBalances(in.Snapshots, lp, cfg.Holders),
	}

	return report, nil
}
