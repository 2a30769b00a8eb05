// Package composite combines engagement series into the FOMO index and the
// bounded hype score.
package composite

import (
	"errors"
	"fmt"
	"sort"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/stats"
)

// ErrLengthMismatch is returned when series that must share labels do not.
var ErrLengthMismatch = errors.New("composite: series length or label mismatch")

// sigmaFloor keeps z-scores finite when a metric is constant across bins.
const sigmaFloor = 1e-9

// FOMOBin is one time bin of FOMO inputs.
type FOMOBin struct {
	TimestampMs   int64
	SEI           float64
	RelativeSpike float64
	Views         float64
}

// BuildFOMOBins zips the three per-bucket series by label.
func BuildFOMOBins(sei, relativeSpike, views domain.Series) ([]FOMOBin, error) {
	if len(sei) != len(relativeSpike) || len(sei) != len(views) {
		return nil, fmt.Errorf("%w: sei=%d relative_spike=%d views=%d",
			ErrLengthMismatch, len(sei), len(relativeSpike), len(views))
	}

	s, r, v := sei.Sorted(), relativeSpike.Sorted(), views.Sorted()
	bins := make([]FOMOBin, len(s))
	for i := range s {
		if s[i].TimestampMs != r[i].TimestampMs || s[i].TimestampMs != v[i].TimestampMs {
			return nil, fmt.Errorf("%w: label %d at index %d", ErrLengthMismatch, s[i].TimestampMs, i)
		}
		bins[i] = FOMOBin{
			TimestampMs:   s[i].TimestampMs,
			SEI:           s[i].Value,
			RelativeSpike: r[i].Value,
			Views:         v[i].Value,
		}
	}
	return bins, nil
}

// FOMOIndex z-scores each metric across all bins and averages the three.
//
// fomo[i] = (z(sei[i]) + z(res[i]) + z(views[i])) / 3
// with z(x) = (x - mean) / max(stddev, 1e-9), population statistics.
func FOMOIndex(bins []FOMOBin) domain.Series {
	if len(bins) == 0 {
		return nil
	}

	sorted := make([]FOMOBin, len(bins))
	copy(sorted, bins)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	sei := make([]float64, len(sorted))
	res := make([]float64, len(sorted))
	views := make([]float64, len(sorted))
	for i, b := range sorted {
		sei[i], res[i], views[i] = b.SEI, b.RelativeSpike, b.Views
	}

	zSEI := stats.ZScores(sei, sigmaFloor)
	zRes := stats.ZScores(res, sigmaFloor)
	zViews := stats.ZScores(views, sigmaFloor)

	result := make(domain.Series, len(sorted))
	for i, b := range sorted {
		result[i] = domain.SeriesPoint{
			TimestampMs: b.TimestampMs,
			Value:       domain.Finite((zSEI[i] + zRes[i] + zViews[i]) / 3),
		}
	}
	return result
}
