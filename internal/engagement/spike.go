package engagement

import (
	"crowd-pulse-lab/internal/domain"
)

const spikeEpsilon = 1e-9

// RelativeSpike compares each SEI value with the mean of up to window
// previous values: sei[i] / (mean(prev) + eps).
//
// The first point has no history and is reported as 1 (no spike).
// A zero previous mean yields 0 rather than an unbounded ratio.
func RelativeSpike(sei domain.Series, window int) domain.Series {
	if len(sei) == 0 {
		return nil
	}
	if window < 1 {
		window = 1
	}

	sorted := sei.Sorted()
	result := make(domain.Series, len(sorted))

	for i, p := range sorted {
		if i == 0 {
			result[i] = domain.SeriesPoint{TimestampMs: p.TimestampMs, Value: 1}
			continue
		}

		from := i - window
		if from < 0 {
			from = 0
		}
		sum := 0.0
		for _, prev := range sorted[from:i] {
			sum += prev.Value
		}
		mean := sum / float64(i-from)

		value := 0.0
		if mean > 0 {
			value = p.Value / (mean + spikeEpsilon)
		}
		result[i] = domain.SeriesPoint{TimestampMs: p.TimestampMs, Value: domain.Finite(value)}
	}

	return result
}
