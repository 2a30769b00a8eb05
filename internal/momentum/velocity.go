// Package momentum derives bounded engagement velocity and dynamic spikes
// from an SEI-like series.
package momentum

import (
	"math"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/indicators"
	"crowd-pulse-lab/internal/normalization"
	"crowd-pulse-lab/internal/stats"
)

// Config parameterises the momentum engine.
type Config struct {
	Tau            int     `yaml:"tau"`             // EMA period the robust z-score is measured against
	Epsilon        float64 `yaml:"epsilon"`         // added to MAD to avoid division by zero
	WhaleFollowers int64   `yaml:"whale_followers"` // authors above this count feed the booster
	BoostLambda    float64 `yaml:"boost_lambda"`    // maximum extra multiplier from whale engagement
	BoostBase      float64 `yaml:"boost_base"`      // whale engagement at which the boost reaches tanh(1)
	FisherClamp    float64 `yaml:"fisher_clamp"`    // |x| bound before the Fisher transform
	SpikeK         float64 `yaml:"spike_k"`         // stddev multiplier for dynamic spike detection
}

// DefaultConfig returns the default momentum parameters.
func DefaultConfig() Config {
	return Config{
		Tau:            15,
		Epsilon:        1e-9,
		WhaleFollowers: 10_000,
		BoostLambda:    0.5,
		BoostBase:      1000,
		FisherClamp:    0.99,
		SpikeK:         0.3,
	}
}

// MinVelocityPoints is the shortest series Velocity produces output for.
const MinVelocityPoints = 3

// Velocity turns an SEI-like series into a bounded, oscillating velocity.
//
// Steps per point i:
//  1. ema = EMA(series, tau)
//  2. z = (v[i] - ema[i]) / (MAD + eps), MAD over the whole series
//  3. gate = max(0, v[i] - 2*v[i-1] + v[i-2]); the first two points have no gate and read 0
//  4. boost = lambda * tanh(whaleEngagement / base), whale engagement from events in the same bucket
//  5. velocity = z * gate * (1 + boost)
//  6. fisher transform of clamp(velocity / (|velocity| + 1), ±FisherClamp)
//
// Fewer than three points returns an empty series.
func Velocity(series domain.Series, events []domain.Event, intervalMinutes int, cfg Config) domain.Series {
	sorted := series.Sorted()
	if len(sorted) < MinVelocityPoints {
		return nil
	}

	values := sorted.Values()
	ema := indicators.EMAValues(values, cfg.Tau)
	mad := stats.MAD(values)
	whale := WhaleEngagement(events, intervalMinutes, cfg.WhaleFollowers)

	result := make(domain.Series, len(sorted))
	for i, p := range sorted {
		gate := 0.0
		if i >= 2 {
			gate = math.Max(0, values[i]-2*values[i-1]+values[i-2])
		}

		z := (values[i] - ema[i]) / (mad + cfg.Epsilon)
		boost := WhaleBoost(whale[p.TimestampMs], cfg)
		v := z * gate * (1 + boost)

		result[i] = domain.SeriesPoint{
			TimestampMs: p.TimestampMs,
			Value:       domain.Finite(Fisher(v, cfg.FisherClamp)),
		}
	}

	return result
}

// WhaleEngagement sums likes + retweets of events whose author has more than
// minFollowers followers, keyed by bucket start.
func WhaleEngagement(events []domain.Event, intervalMinutes int, minFollowers int64) map[int64]float64 {
	out := make(map[int64]float64)
	if intervalMinutes <= 0 {
		return out
	}
	intervalMs := int64(intervalMinutes) * 60_000

	for _, e := range events {
		if e.AuthorFollowers <= minFollowers {
			continue
		}
		start := normalization.BucketStart(e.TimestampMs, intervalMs)
		out[start] += float64(e.Likes + e.Retweets)
	}
	return out
}

// WhaleBoost is lambda * tanh(whaleEngagement / base).
func WhaleBoost(whaleEngagement float64, cfg Config) float64 {
	if cfg.BoostBase <= 0 || whaleEngagement <= 0 {
		return 0
	}
	return cfg.BoostLambda * math.Tanh(whaleEngagement/cfg.BoostBase)
}

// Fisher squashes v into (-1, 1) with v/(|v|+1), clamps it to ±limit and
// applies the Fisher transform 0.5 * ln((1+x)/(1-x)).
func Fisher(v, limit float64) float64 {
	if limit <= 0 || limit >= 1 {
		limit = 0.99
	}
	x := v / (math.Abs(v) + 1)
	x = stats.Clamp(x, -limit, limit)
	return 0.5 * math.Log((1+x)/(1-x))
}
