package domain

// Event is one social-engagement observation for an asset.
// Corresponds to engagement_events table in PostgreSQL.
type Event struct {
	ID              string   // post identifier, unique per asset
	Asset           string   // token / asset identifier
	Author          string   // optional author handle
	TimestampMs     int64    // Unix timestamp in milliseconds, <= 0 when missing or malformed
	Likes           int64    // like count
	Comments        int64    // comment / reply count
	Retweets        int64    // retweet / repost count
	Impressions     int64    // view count
	AuthorFollowers int64    // follower count of the author at observation time
	Sentiment       *float64 // optional sentiment in [-1, 1], NULL if not scored
}

// HasTimestamp reports whether the event carries a usable timestamp.
func (e Event) HasTimestamp() bool {
	return e.TimestampMs > 0
}
