package ingestion

import (
	"errors"
	"testing"

	"crowd-pulse-lab/internal/domain"
)

func TestSortEvents(t *testing.T) {
	// Intentionally unordered events
	events := []*domain.Event{
		{TimestampMs: 200, Asset: "B", ID: "1"},
		{TimestampMs: 100, Asset: "B", ID: "2"},
		{TimestampMs: 100, Asset: "A", ID: "9"},
		{TimestampMs: 100, Asset: "B", ID: "1"},
		{TimestampMs: 300, Asset: "A", ID: "1"},
	}

	SortEvents(events)

	// Verify order: (timestamp ASC, asset ASC, id ASC)
	expected := []struct {
		ts    int64
		asset string
		id    string
	}{
		{100, "A", "9"},
		{100, "B", "1"},
		{100, "B", "2"},
		{200, "B", "1"},
		{300, "A", "1"},
	}

	for i, exp := range expected {
		if events[i].TimestampMs != exp.ts || events[i].Asset != exp.asset || events[i].ID != exp.id {
			t.Errorf("Index %d: got (%d, %s, %s), want (%d, %s, %s)",
				i, events[i].TimestampMs, events[i].Asset, events[i].ID, exp.ts, exp.asset, exp.id)
		}
	}

	if err := ValidateEventOrdering(events); err != nil {
		t.Errorf("Expected sorted events to validate, got %v", err)
	}
}

func TestSortEvents_Empty(t *testing.T) {
	var events []*domain.Event
	SortEvents(events) // Should not panic
}

func TestValidateEventOrdering_Invalid(t *testing.T) {
	events := []*domain.Event{
		{TimestampMs: 200, Asset: "A", ID: "1"},
		{TimestampMs: 100, Asset: "A", ID: "2"},
	}
	if err := ValidateEventOrdering(events); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("Expected ErrInvalidOrdering, got %v", err)
	}

	dup := []*domain.Event{
		{TimestampMs: 100, Asset: "A", ID: "1"},
		{TimestampMs: 100, Asset: "A", ID: "1"},
	}
	if err := ValidateEventOrdering(dup); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("Expected ErrInvalidOrdering for duplicates, got %v", err)
	}
}

func TestDedupeEvents(t *testing.T) {
	events := []*domain.Event{
		{Asset: "A", ID: "1", Likes: 1},
		{Asset: "A", ID: "2", Likes: 1},
		{Asset: "B", ID: "1", Likes: 1},
		{Asset: "A", ID: "1", Likes: 7},
	}

	got := DedupeEvents(events)

	if len(got) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(got))
	}
	if got[0].ID != "2" || got[1].Asset != "B" {
		t.Errorf("Expected input order preserved, got %+v", got)
	}
	if got[2].Likes != 7 {
		t.Errorf("Expected the last delivery to win, got likes=%d", got[2].Likes)
	}
}

func TestDedupeEvents_NoDuplicates(t *testing.T) {
	events := []*domain.Event{{Asset: "A", ID: "1"}, {Asset: "A", ID: "2"}}
	if got := DedupeEvents(events); len(got) != 2 {
		t.Errorf("Expected 2 events, got %d", len(got))
	}
}
