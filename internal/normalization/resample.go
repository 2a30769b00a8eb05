package normalization

import (
	"sort"

	"crowd-pulse-lab/internal/domain"
)

// BucketStart aligns a timestamp to the start of its interval.
// Interval alignment: floor(timestamp_ms / interval_ms) * interval_ms
func BucketStart(timestampMs, intervalMs int64) int64 {
	if intervalMs <= 0 {
		return timestampMs
	}
	start := (timestampMs / intervalMs) * intervalMs
	if timestampMs < 0 && timestampMs%intervalMs != 0 {
		start -= intervalMs
	}
	return start
}

// BucketEvents aggregates events into fixed-width buckets of intervalMinutes.
// Input order does not matter; output is ascending by bucket start.
//
// Aggregation per bucket_start:
//   - count = COUNT(*)
//   - sum_engagement = SUM(likes + comments + 2*retweets + 0.5*impressions)
//   - sum_views = SUM(impressions)
//   - sum_likes / sum_retweets = SUM(likes) / SUM(retweets)
//
// Buckets with no events are omitted, never zero-filled.
func BucketEvents(events []domain.Event, intervalMinutes int) []*domain.Bucket {
	if len(events) == 0 || intervalMinutes <= 0 {
		return nil
	}

	intervalMs := int64(intervalMinutes) * 60_000

	sorted := make([]domain.Event, len(events))
	copy(sorted, events)
	SortEvents(sorted)

	buckets := make(map[int64]*domain.Bucket)

	for _, e := range sorted {
		start := BucketStart(e.TimestampMs, intervalMs)

		b, ok := buckets[start]
		if !ok {
			b = &domain.Bucket{
				StartMs:    start,
				IntervalMs: intervalMs,
			}
			buckets[start] = b
		}

		b.Count++
		b.SumEngagement += RawEngagement(e)
		b.SumViews += float64(e.Impressions)
		b.SumLikes += float64(e.Likes)
		b.SumRetweets += float64(e.Retweets)
		b.Events = append(b.Events, e)
	}

	result := make([]*domain.Bucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, b)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartMs < result[j].StartMs
	})

	return result
}

// RawEngagement is likes + comments + 2*retweets + 0.5*impressions.
func RawEngagement(e domain.Event) float64 {
	return float64(e.Likes) + float64(e.Comments) + 2*float64(e.Retweets) + 0.5*float64(e.Impressions)
}
