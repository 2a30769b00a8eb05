package normalization

import (
	"sort"

	"crowd-pulse-lab/internal/domain"
)

// SortEvents orders events by (timestamp_ms ASC, id ASC).
// This provides deterministic ordering for recursive smoothing downstream.
func SortEvents(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(&events[i], &events[j]) < 0
	})
}

// SortSnapshots orders holder snapshots by (timestamp_ms ASC, address ASC).
func SortSnapshots(snapshots []domain.HolderSnapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return compareSnapshots(&snapshots[i], &snapshots[j]) < 0
	})
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareEvents(a, b *domain.Event) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}

// compareSnapshots returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareSnapshots(a, b *domain.HolderSnapshot) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Address != b.Address {
		if a.Address < b.Address {
			return -1
		}
		return 1
	}
	return 0
}
