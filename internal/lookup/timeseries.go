package lookup

import (
	"errors"
	"sort"

	"crowd-pulse-lab/internal/domain"
)

// ErrNoLiquidityData is returned when a lookup has no points at all.
var ErrNoLiquidityData = errors.New("no liquidity data available")

// LiquidityFunc returns available liquidity at a bucket time.
type LiquidityFunc func(timestampMs int64) float64

// LiquidityAt returns liquidity at or before target timestamp.
// Points must be sorted ascending by timestamp.
// Returns (nil, nil) if no point is at or before target (valid case).
// Returns ErrNoLiquidityData if slice is empty.
func LiquidityAt(target int64, points []domain.LiquidityPoint) (*float64, error) {
	if len(points) == 0 {
		return nil, ErrNoLiquidityData
	}

	// first index with TimestampMs > target
	i := sort.Search(len(points), func(i int) bool {
		return points[i].TimestampMs > target
	})
	if i == 0 {
		return nil, nil
	}

	v := points[i-1].Liquidity
	return &v, nil
}

// FromPoints builds a LiquidityFunc over a copy of points.
// Times before the first point, or an empty input, read as 0 liquidity.
func FromPoints(points []domain.LiquidityPoint) LiquidityFunc {
	sorted := make([]domain.LiquidityPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	return func(ts int64) float64 {
		v, err := LiquidityAt(ts, sorted)
		if err != nil || v == nil {
			return 0
		}
		return domain.Finite(*v)
	}
}

// Constant returns a LiquidityFunc that always reports liquidity.
func Constant(liquidity float64) LiquidityFunc {
	return func(int64) float64 { return liquidity }
}
