// Package indicators implements the generic smoothing primitives used across
// the engine: EMA, RSI, MACD and Stochastic RSI over any named value series.
//
// Every function sorts its input by timestamp at entry and returns a newly
// allocated, ascending series. Recursive smoothing is expressed as a fold
// with the previous state carried explicitly.
package indicators

import (
	"crowd-pulse-lab/internal/domain"
)

// EMAStep advances an exponential moving average by one value.
func EMAStep(prev, value, alpha float64) float64 {
	return alpha*value + (1-alpha)*prev
}

// EMAValues applies an EMA with alpha = 2/(period+1) to values.
// The first output equals the first input.
func EMAValues(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period < 1 {
		period = 1
	}
	alpha := 2.0 / float64(period+1)

	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = EMAStep(out[i-1], values[i], alpha)
	}
	return out
}

// EMA returns the exponential moving average of series.
// Empty input returns an empty series.
func EMA(series domain.Series, period int) domain.Series {
	sorted := series.Sorted()
	if len(sorted) == 0 {
		return nil
	}

	smoothed := EMAValues(sorted.Values(), period)

	result := make(domain.Series, len(sorted))
	for i, p := range sorted {
		result[i] = domain.SeriesPoint{TimestampMs: p.TimestampMs, Value: domain.Finite(smoothed[i])}
	}
	return result
}

// SMA returns the trailing simple average of values over window.
// Leading points average whatever history is available.
func SMA(values []float64, window int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if window < 1 {
		window = 1
	}

	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}
