package domain

import (
	"math"
	"sort"
)

// SeriesPoint is one labelled value of a derived series.
// The label is the start of the time bucket in Unix milliseconds.
type SeriesPoint struct {
	TimestampMs int64   `json:"t"`
	Value       float64 `json:"v"`
}

// Series is an ordered sequence of points, ascending by TimestampMs.
type Series []SeriesPoint

// Values returns the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Timestamps returns the point labels in order.
func (s Series) Timestamps() []int64 {
	out := make([]int64, len(s))
	for i, p := range s {
		out[i] = p.TimestampMs
	}
	return out
}

// Sorted returns a copy of s ordered ascending by timestamp.
// Points sharing a timestamp keep their relative order.
func (s Series) Sorted() Series {
	if len(s) == 0 {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out
}

// IsSorted reports whether s is ascending by timestamp.
func (s Series) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if s[i].TimestampMs < s[i-1].TimestampMs {
			return false
		}
	}
	return true
}

// Last returns the final point and true, or a zero point and false if s is empty.
func (s Series) Last() (SeriesPoint, bool) {
	if len(s) == 0 {
		return SeriesPoint{}, false
	}
	return s[len(s)-1], true
}

// Finite coerces NaN and infinities to 0.
// Every externally visible float goes through it.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// MACDPoint is one MACD line/signal/histogram triple.
type MACDPoint struct {
	TimestampMs int64   `json:"t"`
	MACD        float64 `json:"macd"`
	Signal      float64 `json:"signal"`
	Histogram   float64 `json:"histogram"`
}

// StochRSIPoint is one Stochastic RSI reading.
type StochRSIPoint struct {
	TimestampMs int64   `json:"t"`
	RSI         float64 `json:"rsi"`
	K           float64 `json:"k"`
	D           float64 `json:"d"`
}
