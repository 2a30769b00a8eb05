package indicators

import (
	"crowd-pulse-lab/internal/domain"
)

// MACD computes macd = EMA(fast) - EMA(slow), signal = EMA(macd, signal)
// and histogram = macd - signal. All points share the input labels.
func MACD(series domain.Series, fastPeriod, slowPeriod, signalPeriod int) []domain.MACDPoint {
	sorted := series.Sorted()
	if len(sorted) == 0 {
		return nil
	}

	values := sorted.Values()
	fast := EMAValues(values, fastPeriod)
	slow := EMAValues(values, slowPeriod)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fast[i] - slow[i]
	}
	signal := EMAValues(line, signalPeriod)

	result := make([]domain.MACDPoint, len(sorted))
	for i, p := range sorted {
		result[i] = domain.MACDPoint{
			TimestampMs: p.TimestampMs,
			MACD:        domain.Finite(line[i]),
			Signal:      domain.Finite(signal[i]),
			Histogram:   domain.Finite(line[i] - signal[i]),
		}
	}
	return result
}

// MACDLine flattens MACD points into the fast-minus-slow line.
func MACDLine(points []domain.MACDPoint) domain.Series {
	if len(points) == 0 {
		return nil
	}
	out := make(domain.Series, len(points))
	for i, p := range points {
		out[i] = domain.SeriesPoint{TimestampMs: p.TimestampMs, Value: p.MACD}
	}
	return out
}
