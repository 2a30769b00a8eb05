package normalization

import (
	"time"

	"crowd-pulse-lab/internal/domain"
)

// FillMissingTimestamps returns a copy of events where every missing or
// malformed timestamp (<= 0) is replaced by now.
// The second return value is the number of substituted timestamps so the
// caller can log it.
func FillMissingTimestamps(events []domain.Event, now time.Time) ([]domain.Event, int) {
	if len(events) == 0 {
		return nil, 0
	}

	nowMs := now.UnixMilli()
	out := make([]domain.Event, len(events))
	substituted := 0

	for i, e := range events {
		if !e.HasTimestamp() {
			e.TimestampMs = nowMs
			substituted++
		}
		out[i] = e
	}

	return out, substituted
}
