package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned for metric names outside the fixed set.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric names one output of the analytics engine.
type Metric string

// Metric constants
const (
	MetricSEI           Metric = "sei"
	MetricSEIVelocity   Metric = "sei_velocity"
	MetricSEIEMA        Metric = "sei_ema"
	MetricFOMO          Metric = "fomo"
	MetricRSI           Metric = "rsi"
	MetricMACD          Metric = "macd"
	MetricStochRSI      Metric = "stoch_rsi"
	MetricSellOffRisk   Metric = "sell_off_risk"
	MetricHype          Metric = "hype"
	MetricSpikes        Metric = "spikes"
	MetricViews         Metric = "views"
	MetricRelativeSpike Metric = "relative_spike"
	MetricClassBalances Metric = "class_balances"
)

// AllMetrics lists every metric in a stable order.
var AllMetrics = []Metric{
	MetricSEI,
	MetricSEIVelocity,
	MetricSEIEMA,
	MetricFOMO,
	MetricRSI,
	MetricMACD,
	MetricStochRSI,
	MetricSellOffRisk,
	MetricHype,
	MetricSpikes,
	MetricViews,
	MetricRelativeSpike,
	MetricClassBalances,
}

// String returns the string representation of the metric.
func (m Metric) String() string {
	return string(m)
}

// IsValid checks if the metric is one of the known values.
func (m Metric) IsValid() bool {
	for _, known := range AllMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMetric resolves a metric name, case-insensitively.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}
