package indicators

import (
	"crowd-pulse-lab/internal/domain"
)

// StochasticRSI rescales each Wilder RSI value into [0, 100] against the
// min/max RSI of the trailing stochPeriod window.
//
// Points are emitted once the window is full. A flat window (min == max)
// reads as the neutral 50. %K and %D are trailing simple averages of the
// raw stochastic and of %K; smoothK/smoothD <= 1 disables smoothing.
func StochasticRSI(series domain.Series, rsiPeriod, stochPeriod, smoothK, smoothD int) []domain.StochRSIPoint {
	rsi := RSI(series, rsiPeriod, MethodWilder)
	if len(rsi) == 0 {
		return nil
	}
	if stochPeriod < 1 {
		stochPeriod = 1
	}
	if len(rsi) < stochPeriod {
		return nil
	}

	n := len(rsi) - stochPeriod + 1
	raw := make([]float64, n)
	for j := stochPeriod - 1; j < len(rsi); j++ {
		lo, hi := rsi[j].Value, rsi[j].Value
		for _, p := range rsi[j-stochPeriod+1 : j] {
			if p.Value < lo {
				lo = p.Value
			}
			if p.Value > hi {
				hi = p.Value
			}
		}

		v := 50.0
		if hi > lo {
			v = (rsi[j].Value - lo) / (hi - lo) * 100
		}
		raw[j-stochPeriod+1] = v
	}

	k := raw
	if smoothK > 1 {
		k = SMA(raw, smoothK)
	}
	d := k
	if smoothD > 1 {
		d = SMA(k, smoothD)
	}

	result := make([]domain.StochRSIPoint, n)
	for i := 0; i < n; i++ {
		src := rsi[i+stochPeriod-1]
		result[i] = domain.StochRSIPoint{
			TimestampMs: src.TimestampMs,
			RSI:         src.Value,
			K:           domain.Finite(k[i]),
			D:           domain.Finite(d[i]),
		}
	}
	return result
}

// StochK flattens Stochastic RSI points into a %K series.
func StochK(points []domain.StochRSIPoint) domain.Series {
	if len(points) == 0 {
		return nil
	}
	out := make(domain.Series, len(points))
	for i, p := range points {
		out[i] = domain.SeriesPoint{TimestampMs: p.TimestampMs, Value: p.K}
	}
	return out
}
