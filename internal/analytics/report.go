package analytics

import (
	"fmt"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/holders"
	"crowd-pulse-lab/internal/indicators"
)

// Report holds every derived series for one asset.
// All series are ascending by timestamp and contain only finite values.
type Report struct {
	Asset           string `json:"asset"`
	IntervalMinutes int    `json:"interval_minutes"`
	EventCount      int    `json:"event_count"`
	BucketCount     int    `json:"bucket_count"`

	SEI           domain.Series          `json:"sei"`
	SEIVelocity   domain.Series          `json:"sei_velocity"`
	SEIEMA        domain.Series          `json:"sei_ema"`
	FOMO          domain.Series          `json:"fomo"`
	RSI           domain.Series          `json:"rsi"`
	MACD          []domain.MACDPoint     `json:"macd"`
	StochRSI      []domain.StochRSIPoint `json:"stoch_rsi"`
	Spikes        domain.Series          `json:"spikes"`
	Views         domain.Series          `json:"views"`
	RelativeSpike domain.Series          `json:"relative_spike"`
	Hype          float64                `json:"hype"`
	HypeSeries    domain.Series          `json:"hype_series"`

	Risk          []domain.RiskPoint         `json:"sell_off_risk"`
	ClassBalances []domain.ClassBalancePoint `json:"class_balances"`
}

// Detail returns the full typed output of metric m:
// domain.Series, []domain.MACDPoint, []domain.StochRSIPoint,
// []domain.RiskPoint or []domain.ClassBalancePoint.
func (r *Report) Detail(m domain.Metric) (any, error) {
	switch m {
	case domain.MetricSEI:
		return r.SEI, nil
	case domain.MetricSEIVelocity:
		return r.SEIVelocity, nil
	case domain.MetricSEIEMA:
		return r.SEIEMA, nil
	case domain.MetricFOMO:
		return r.FOMO, nil
	case domain.MetricRSI:
		return r.RSI, nil
	case domain.MetricMACD:
		return r.MACD, nil
	case domain.MetricStochRSI:
		return r.StochRSI, nil
	case domain.MetricSellOffRisk:
		return r.Risk, nil
	case domain.MetricHype:
		return r.HypeSeries, nil
	case domain.MetricSpikes:
		return r.Spikes, nil
	case domain.MetricViews:
		return r.Views, nil
	case domain.MetricRelativeSpike:
		return r.RelativeSpike, nil
	case domain.MetricClassBalances:
		return r.ClassBalances, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMetric, string(m))
	}
}

// Series projects metric m onto a plain series.
// Structured metrics project onto their headline value: the MACD line,
// Stochastic RSI %K, the sell-off risk score and the whale class balance.
func (r *Report) Series(m domain.Metric) (domain.Series, error) {
	switch m {
	case domain.MetricMACD:
		return indicators.MACDLine(r.MACD), nil
	case domain.MetricStochRSI:
		return indicators.StochK(r.StochRSI), nil
	case domain.MetricSellOffRisk:
		return holders.ScoreSeries(r.Risk), nil
	case domain.MetricClassBalances:
		s := make(domain.Series, len(r.ClassBalances))
		for i, p := range r.ClassBalances {
			s[i] = domain.SeriesPoint{TimestampMs: p.TimestampMs, Value: p.Whale}
		}
		return s, nil
	}

	detail, err := r.Detail(m)
	if err != nil {
		return nil, err
	}
	return detail.(domain.Series), nil
}
