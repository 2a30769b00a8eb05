package domain

// Bucket is a fixed-width time window of aggregated engagement events.
// Buckets without events are never materialised.
type Bucket struct {
	StartMs       int64   // floor(timestamp_ms / interval_ms) * interval_ms
	IntervalMs    int64   // bucket width
	Count         int     // number of events
	SumEngagement float64 // SUM(likes + comments + 2*retweets + 0.5*impressions)
	SumViews      float64 // SUM(impressions)
	SumLikes      float64 // SUM(likes)
	SumRetweets   float64 // SUM(retweets)
	Events        []Event // events in the bucket, ordered by timestamp
}

// Supported engagement bucket widths (in minutes)
const (
	BucketInterval1Min  = 1
	BucketInterval5Min  = 5
	BucketInterval15Min = 15
	BucketInterval1Hour = 60
)
