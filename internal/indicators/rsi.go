package indicators

import (
	"fmt"
	"strings"

	"crowd-pulse-lab/internal/domain"
)

// Method selects how RSI averages are carried forward after the seed window.
type Method string

// RSI smoothing methods
const (
	MethodWilder Method = "wilder"
	MethodEMA    Method = "ema"
	MethodSMA    Method = "sma"
)

// ParseMethod resolves a smoothing method name. Empty selects Wilder.
func ParseMethod(name string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(name))) {
	case "", MethodWilder:
		return MethodWilder, nil
	case MethodEMA:
		return MethodEMA, nil
	case MethodSMA:
		return MethodSMA, nil
	default:
		return "", fmt.Errorf("unknown rsi method %q", name)
	}
}

// RSI computes the Relative Strength Index of series.
//
// Average gain/loss are seeded with the simple mean of the first period
// steps and the first value is emitted at index period. Later values
// recurse per method:
//   - wilder: avg = (avg*(period-1) + new) / period
//   - ema:    avg = alpha*new + (1-alpha)*avg, alpha = 2/(period+1)
//   - sma:    rolling mean of the last period steps
//
// Input shorter than period+1 returns an empty series.
func RSI(series domain.Series, period int, method Method) domain.Series {
	sorted := series.Sorted()
	if period < 1 || len(sorted) < period+1 {
		return nil
	}

	steps := len(sorted) - 1
	gains := make([]float64, steps)
	losses := make([]float64, steps)
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].Value - sorted[i-1].Value
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	// running sums for the sma method
	sumGain, sumLoss := avgGain, avgLoss
	avgGain /= float64(period)
	avgLoss /= float64(period)

	result := make(domain.Series, 0, steps-period+1)
	result = append(result, domain.SeriesPoint{
		TimestampMs: sorted[period].TimestampMs,
		Value:       rsiValue(avgGain, avgLoss),
	})

	p := float64(period)
	alpha := 2.0 / (p + 1)

	for i := period; i < steps; i++ {
		switch method {
		case MethodEMA:
			avgGain = EMAStep(avgGain, gains[i], alpha)
			avgLoss = EMAStep(avgLoss, losses[i], alpha)
		case MethodSMA:
			sumGain += gains[i] - gains[i-period]
			sumLoss += losses[i] - losses[i-period]
			avgGain = sumGain / p
			avgLoss = sumLoss / p
		default:
			avgGain = (avgGain*(p-1) + gains[i]) / p
			avgLoss = (avgLoss*(p-1) + losses[i]) / p
		}

		result = append(result, domain.SeriesPoint{
			TimestampMs: sorted[i+1].TimestampMs,
			Value:       rsiValue(avgGain, avgLoss),
		})
	}

	return result
}

// rsiValue maps average gain/loss into [0, 100].
// No losses reads as 100, no movement at all reads as the neutral 50.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss <= 0 {
		if avgGain <= 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	v := 100 - 100/(1+rs)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return domain.Finite(v)
}
