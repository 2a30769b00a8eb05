package holders

import (
	"math"
	"sort"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/lookup"
	"crowd-pulse-lab/internal/normalization"
)

// bucketBalances is the balance of every address in one bucket.
// addresses is sorted so sums are order-stable across runs.
type bucketBalances struct {
	startMs   int64
	balances  map[string]float64
	addresses []string
}

// buildBuckets rounds snapshot times down to the interval and keeps the
// last snapshot per (address, bucket). Output is ascending by bucket.
func buildBuckets(snapshots []domain.HolderSnapshot, intervalMinutes int) []bucketBalances {
	if len(snapshots) == 0 {
		return nil
	}
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultConfig().IntervalMinutes
	}
	intervalMs := int64(intervalMinutes) * 60_000

	sorted := make([]domain.HolderSnapshot, len(snapshots))
	copy(sorted, snapshots)
	normalization.SortSnapshots(sorted)

	byStart := make(map[int64]map[string]float64)
	for _, s := range sorted {
		start := normalization.BucketStart(s.TimestampMs, intervalMs)
		m, ok := byStart[start]
		if !ok {
			m = make(map[string]float64)
			byStart[start] = m
		}
		m[s.Address] = s.Amount
	}

	result := make([]bucketBalances, 0, len(byStart))
	for start, m := range byStart {
		addresses := make([]string, 0, len(m))
		for addr := range m {
			addresses = append(addresses, addr)
		}
		sort.Strings(addresses)
		result = append(result, bucketBalances{startMs: start, balances: m, addresses: addresses})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].startMs < result[j].startMs
	})
	return result
}

// Analyze produces one RiskPoint per bucket that has snapshots.
//
// Per bucket:
//   - concentration = 1 - H/ln(n), H = -Σ p ln p over non-lp positive balances
//   - coordinated ratio = holders down >= DropThreshold versus SellWindow buckets earlier
//   - liquidity risk = min(1, whale balance / liquidity)
//   - score = wC*concentration + wS*flag + wL*liquidity risk
//
// lp addresses are excluded from concentration, coordination and whale sums.
// A nil liquidity func reads as zero liquidity.
func Analyze(snapshots []domain.HolderSnapshot, lp map[string]bool, liquidity lookup.LiquidityFunc, cfg Config) []domain.RiskPoint {
	buckets := buildBuckets(snapshots, cfg.IntervalMinutes)
	if len(buckets) == 0 {
		return nil
	}
	classes := Classify(snapshots, lp, cfg)

	result := make([]domain.RiskPoint, len(buckets))
	for k, b := range buckets {
		var amounts []float64
		var whaleBalance float64
		for _, addr := range b.addresses {
			amount := b.balances[addr]
			class := classes[addr]
			if class == domain.HolderClassLP || amount <= 0 {
				continue
			}
			amounts = append(amounts, amount)
			if class == domain.HolderClassWhale {
				whaleBalance += amount
			}
		}

		concentration := ConcentrationRisk(amounts)

		ratio := 0.0
		if cfg.SellWindow > 0 && k >= cfg.SellWindow {
			ratio = CoordinatedSellRatio(buckets[k-cfg.SellWindow].balances, b.balances, classes, cfg.DropThreshold)
		}
		flag := ratio >= cfg.CoordinatedThreshold && ratio > 0

		liq := 0.0
		if liquidity != nil {
			liq = domain.Finite(liquidity(b.startMs))
		}
		liqRisk := LiquidityRisk(whaleBalance, liq)

		flagValue := 0.0
		if flag {
			flagValue = 1
		}
		score := cfg.Weights.Concentration*concentration +
			cfg.Weights.Coordinated*flagValue +
			cfg.Weights.Liquidity*liqRisk

		result[k] = domain.RiskPoint{
			TimestampMs:          b.startMs,
			Entropy:              domain.Finite(concentration),
			CoordinatedSellRatio: domain.Finite(ratio),
			CoordinatedSellFlag:  flag,
			LiquidityRisk:        domain.Finite(liqRisk),
			Score:                domain.Finite(score),
			HolderCount:          len(amounts),
			WhaleBalance:         domain.Finite(whaleBalance),
			Liquidity:            liq,
		}
	}
	return result
}

// ConcentrationRisk is 1 - H/ln(n) over positive balances.
// One holder is fully concentrated (1); no holders read 0.
func ConcentrationRisk(amounts []float64) float64 {
	var total float64
	var n int
	for _, a := range amounts {
		if a > 0 {
			total += a
			n++
		}
	}
	switch n {
	case 0:
		return 0
	case 1:
		return 1
	}

	var entropy float64
	for _, a := range amounts {
		if a <= 0 {
			continue
		}
		p := a / total
		entropy -= p * math.Log(p)
	}

	risk := 1 - entropy/math.Log(float64(n))
	return math.Min(1, math.Max(0, risk))
}

// CoordinatedSellRatio is the fraction of non-lp holders with a positive
// previous balance whose balance fell by at least dropThreshold.
// Addresses absent from current hold 0.
func CoordinatedSellRatio(previous, current map[string]float64, classes map[string]domain.HolderClass, dropThreshold float64) float64 {
	var holders, drops int
	for addr, prev := range previous {
		if prev <= 0 || classes[addr] == domain.HolderClassLP {
			continue
		}
		holders++
		if (prev-current[addr])/prev >= dropThreshold {
			drops++
		}
	}
	if holders == 0 {
		return 0
	}
	return float64(drops) / float64(holders)
}

// LiquidityRisk is min(1, whaleBalance/liquidity); no liquidity reads 0.
func LiquidityRisk(whaleBalance, liquidity float64) float64 {
	if liquidity <= 0 || whaleBalance <= 0 {
		return 0
	}
	return math.Min(1, whaleBalance/liquidity)
}

// ClassBalances sums balances per holder class for every bucket.
func ClassBalances(snapshots []domain.HolderSnapshot, lp map[string]bool, cfg Config) []domain.ClassBalancePoint {
	buckets := buildBuckets(snapshots, cfg.IntervalMinutes)
	if len(buckets) == 0 {
		return nil
	}
	classes := Classify(snapshots, lp, cfg)

	result := make([]domain.ClassBalancePoint, len(buckets))
	for k, b := range buckets {
		p := domain.ClassBalancePoint{TimestampMs: b.startMs}
		for _, addr := range b.addresses {
			amount := b.balances[addr]
			switch classes[addr] {
			case domain.HolderClassWhale:
				p.Whale += amount
			case domain.HolderClassLP:
				p.LP += amount
			default:
				p.Retail += amount
			}
		}
		result[k] = p
	}
	return result
}

// ScoreSeries projects risk points onto their score.
func ScoreSeries(points []domain.RiskPoint) domain.Series {
	if len(points) == 0 {
		return nil
	}
	s := make(domain.Series, len(points))
	for i, p := range points {
		s[i] = domain.SeriesPoint{TimestampMs: p.TimestampMs, Value: p.Score}
	}
	return s
}
