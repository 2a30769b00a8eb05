package momentum

import (
	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/stats"
)

// DetectSpikes returns the points whose per-minute velocity
// (Δvalue / Δminutes from the previous point) is at least mean + k*stddev
// of all step velocities (population statistics).
//
// Steps with no elapsed time are ignored. Fewer than two points returns
// an empty series.
func DetectSpikes(series domain.Series, k float64) domain.Series {
	sorted := series.Sorted()
	if len(sorted) < 2 {
		return nil
	}

	type step struct {
		index    int
		velocity float64
	}

	steps := make([]step, 0, len(sorted)-1)
	velocities := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		dtMinutes := float64(sorted[i].TimestampMs-sorted[i-1].TimestampMs) / 60_000
		if dtMinutes <= 0 {
			continue
		}
		v := (sorted[i].Value - sorted[i-1].Value) / dtMinutes
		steps = append(steps, step{index: i, velocity: v})
		velocities = append(velocities, v)
	}
	if len(steps) == 0 {
		return nil
	}

	mean := stats.Mean(velocities)
	threshold := mean + k*stats.PopulationStddev(velocities, mean)

	var result domain.Series
	for _, s := range steps {
		if s.velocity >= threshold {
			result = append(result, sorted[s.index])
		}
	}
	return result
}
