package composite

import (
	"math"
	"sort"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/stats"
)

// Normalisation caps for the hype score inputs.
const (
	sentimentScale = 20
	viewsCeiling   = 1000
	countCeiling   = 500
)

// HypeWeights are the per-signal weights of the hype score.
type HypeWeights struct {
	Frequency float64 `yaml:"frequency"`
	Sentiment float64 `yaml:"sentiment"`
	Views     float64 `yaml:"views"`
	Count     float64 `yaml:"count"`
}

// DefaultHypeWeights returns 0.35/0.15/0.25/0.25.
func DefaultHypeWeights() HypeWeights {
	return HypeWeights{Frequency: 0.35, Sentiment: 0.15, Views: 0.25, Count: 0.25}
}

// HypeInputs are the raw signals of one hype score.
type HypeInputs struct {
	FrequencyTrend float64 // percent growth of post frequency
	SentimentTrend float64 // change in mean sentiment
	Views          float64
	TweetCount     float64
}

// HypeScore normalises each signal to [0,100] and combines them with w.
//
// Normalisation:
//   - frequency trend: as-is, capped at 100
//   - sentiment trend: x20, capped at 100
//   - views: linear to 1000
//   - count: linear to 500
//
// The weighted sum is clamped to [0,100].
func HypeScore(in HypeInputs, w HypeWeights) float64 {
	freq := clamp100(in.FrequencyTrend)
	sentiment := clamp100(in.SentimentTrend * sentimentScale)
	views := clamp100(in.Views / viewsCeiling * 100)
	count := clamp100(in.TweetCount / countCeiling * 100)

	score := w.Frequency*freq + w.Sentiment*sentiment + w.Views*views + w.Count*count
	return domain.Finite(clamp100(score))
}

// FrequencyTrend is the percent growth of the recent half's mean count over
// the earlier half's. Fewer than two points, or an idle earlier half, reads 0.
func FrequencyTrend(counts domain.Series) float64 {
	values := counts.Sorted().Values()
	if len(values) < 2 {
		return 0
	}
	mid := len(values) / 2
	earlier := stats.Mean(values[:mid])
	recent := stats.Mean(values[mid:])
	return percentGrowth(earlier, recent)
}

// SentimentTrend is the recent half's mean sentiment minus the earlier
// half's, over events that carry a sentiment.
func SentimentTrend(buckets []*domain.Bucket) float64 {
	buckets = sortBuckets(buckets)
	means := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		if m, ok := meanSentiment(b); ok {
			means = append(means, m)
		}
	}
	if len(means) < 2 {
		return 0
	}
	mid := len(means) / 2
	return domain.Finite(stats.Mean(means[mid:]) - stats.Mean(means[:mid]))
}

// Hype computes the scalar hype score over all buckets.
func Hype(buckets []*domain.Bucket, w HypeWeights) float64 {
	buckets = sortBuckets(buckets)
	var views, count float64
	counts := make(domain.Series, 0, len(buckets))
	for _, b := range buckets {
		views += b.SumViews
		count += float64(b.Count)
		counts = append(counts, domain.SeriesPoint{TimestampMs: b.StartMs, Value: float64(b.Count)})
	}

	return HypeScore(HypeInputs{
		FrequencyTrend: FrequencyTrend(counts),
		SentimentTrend: SentimentTrend(buckets),
		Views:          views,
		TweetCount:     count,
	}, w)
}

// HypeSeries scores every bucket, with trends measured against the previous
// bucket. The first bucket has no trend inputs.
func HypeSeries(buckets []*domain.Bucket, w HypeWeights) domain.Series {
	if len(buckets) == 0 {
		return nil
	}
	buckets = sortBuckets(buckets)

	result := make(domain.Series, len(buckets))
	for i, b := range buckets {
		in := HypeInputs{Views: b.SumViews, TweetCount: float64(b.Count)}
		if i > 0 {
			prev := buckets[i-1]
			in.FrequencyTrend = percentGrowth(float64(prev.Count), float64(b.Count))
			prevSentiment, okPrev := meanSentiment(prev)
			curSentiment, okCur := meanSentiment(b)
			if okPrev && okCur {
				in.SentimentTrend = curSentiment - prevSentiment
			}
		}
		result[i] = domain.SeriesPoint{TimestampMs: b.StartMs, Value: HypeScore(in, w)}
	}
	return result
}

// sortBuckets returns a copy of buckets ordered by start time. Nil entries are dropped.
func sortBuckets(buckets []*domain.Bucket) []*domain.Bucket {
	sorted := make([]*domain.Bucket, 0, len(buckets))
	for _, b := range buckets {
		if b != nil {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartMs < sorted[j].StartMs
	})
	return sorted
}

func meanSentiment(b *domain.Bucket) (float64, bool) {
	if b == nil {
		return 0, false
	}
	var sum float64
	var n int
	for _, e := range b.Events {
		if e.Sentiment == nil {
			continue
		}
		sum += *e.Sentiment
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func percentGrowth(earlier, recent float64) float64 {
	if earlier <= 0 {
		return 0
	}
	return domain.Finite(math.Max(0, (recent-earlier)/earlier*100))
}

func clamp100(x float64) float64 {
	return stats.Clamp(x, 0, 100)
}
