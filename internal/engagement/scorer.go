// Package engagement turns bucketed engagement events into the Social Engagement Index.
package engagement

import (
	"math"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/normalization"
)

// Config parameterises the engagement scorer.
type Config struct {
	// InfluenceK is the follower count at which the influence cap reaches tanh(1).
	InfluenceK float64 `yaml:"influence_k"`
	// BaselineN is the event count used by the optional volume scaling.
	BaselineN float64 `yaml:"baseline_n"`
	// VolumeScaling multiplies SEI by ln(1 + count/BaselineN).
	VolumeScaling bool `yaml:"volume_scaling"`
	// SpikeWindow is the number of previous buckets the relative spike compares against.
	SpikeWindow int `yaml:"spike_window"`
}

// DefaultConfig returns the default scorer parameters.
func DefaultConfig() Config {
	return Config{
		InfluenceK:    5000,
		BaselineN:     10,
		VolumeScaling: false,
		SpikeWindow:   5,
	}
}

// SpamPenalty is raw / (followers + 1).
// Engagement attributed to low-follower accounts is scaled down hardest.
func SpamPenalty(raw float64, followers int64) float64 {
	if followers < 0 {
		followers = 0
	}
	return raw / (float64(followers) + 1)
}

// InfluenceCap is tanh(followers / k), saturating towards 1 for large accounts.
func InfluenceCap(followers int64, k float64) float64 {
	if k <= 0 || followers <= 0 {
		return 0
	}
	return math.Tanh(float64(followers) / k)
}

// Weighted computes raw * spamPenalty * influenceCap for one event.
func Weighted(e domain.Event, cfg Config) float64 {
	raw := normalization.RawEngagement(e)
	return domain.Finite(raw * SpamPenalty(raw, e.AuthorFollowers) * InfluenceCap(e.AuthorFollowers, cfg.InfluenceK))
}

// BucketSEI is the mean weighted engagement of the bucket's events,
// optionally scaled by ln(1 + count/BaselineN).
func BucketSEI(b *domain.Bucket, cfg Config) float64 {
	if b == nil || b.Count == 0 {
		return 0
	}

	sum := 0.0
	for _, e := range b.Events {
		sum += Weighted(e, cfg)
	}
	sei := sum / float64(b.Count)

	if cfg.VolumeScaling && cfg.BaselineN > 0 {
		sei *= math.Log1p(float64(b.Count) / cfg.BaselineN)
	}

	return domain.Finite(sei)
}

// SEI computes the Social Engagement Index per bucket.
// Buckets are ordered by start internally; the output is ascending.
func SEI(buckets []*domain.Bucket, cfg Config) domain.Series {
	if len(buckets) == 0 {
		return nil
	}

	result := make(domain.Series, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, domain.SeriesPoint{
			TimestampMs: b.StartMs,
			Value:       BucketSEI(b, cfg),
		})
	}

	return result.Sorted()
}

// Views returns SUM(impressions) per bucket.
func Views(buckets []*domain.Bucket) domain.Series {
	if len(buckets) == 0 {
		return nil
	}
	result := make(domain.Series, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, domain.SeriesPoint{TimestampMs: b.StartMs, Value: b.SumViews})
	}
	return result.Sorted()
}

// Counts returns the number of events per bucket.
func Counts(buckets []*domain.Bucket) domain.Series {
	if len(buckets) == 0 {
		return nil
	}
	result := make(domain.Series, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, domain.SeriesPoint{TimestampMs: b.StartMs, Value: float64(b.Count)})
	}
	return result.Sorted()
}
