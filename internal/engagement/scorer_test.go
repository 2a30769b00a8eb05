package engagement

import (
	"math"
	"testing"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/normalization"
)

func TestWeighted_Formula(t *testing.T) {
	cfg := DefaultConfig()
	e := domain.Event{Likes: 10, Comments: 5, Retweets: 2, Impressions: 100, AuthorFollowers: 5000}

	// raw = 10 + 5 + 4 + 50 = 69
	raw := 69.0
	want := raw * (raw / 5001) * math.Tanh(1)

	if got := Weighted(e, cfg); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWeighted_ZeroFollowers(t *testing.T) {
	// tanh(0) = 0: accounts without followers contribute nothing
	e := domain.Event{Likes: 1000}
	if got := Weighted(e, DefaultConfig()); got != 0 {
		t.Errorf("expected 0 for zero followers, got %v", got)
	}
}

func TestSEI_SingleSpikeScenario(t *testing.T) {
	var events []domain.Event
	for i := 0; i < 10; i++ {
		events = append(events, domain.Event{
			ID:              string(rune('a' + i)),
			TimestampMs:     int64(i * 1000),
			Likes:           1,
			AuthorFollowers: 100,
		})
	}
	spike := domain.Event{ID: "spike", TimestampMs: 60_000, Likes: 10000, AuthorFollowers: 50000}
	events = append(events, spike)

	buckets := normalization.BucketEvents(events, 5)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}

	cfg := DefaultConfig()
	sei := SEI(buckets, cfg)
	if len(sei) != 1 {
		t.Fatalf("expected 1 SEI point, got %d", len(sei))
	}

	spikeWeighted := Weighted(spike, cfg)
	influence := InfluenceCap(spike.AuthorFollowers, cfg.InfluenceK)
	if influence < 0.9999 || influence > 1 {
		t.Errorf("influence cap should be ~1, got %v", influence)
	}
	// bounded by the cap: never more than raw * penalty
	if spikeWeighted > 10000*(10000.0/50001) {
		t.Errorf("spike weighted engagement exceeds uncapped bound: %v", spikeWeighted)
	}

	spikeShare := (spikeWeighted / 11) / sei[0].Value
	if spikeShare < 0.99 {
		t.Errorf("expected SEI dominated by spike post, share = %v", spikeShare)
	}
}

func TestSEI_MeanNotSum(t *testing.T) {
	e := domain.Event{Likes: 100, AuthorFollowers: 5000}
	one := []*domain.Bucket{{StartMs: 0, Count: 1, Events: []domain.Event{e}}}
	two := []*domain.Bucket{{StartMs: 0, Count: 2, Events: []domain.Event{e, e}}}

	cfg := DefaultConfig()
	if SEI(one, cfg)[0].Value != SEI(two, cfg)[0].Value {
		t.Error("SEI should be a per-event mean independent of bucket population")
	}
}

func TestSEI_VolumeScaling(t *testing.T) {
	e := domain.Event{Likes: 100, AuthorFollowers: 5000}
	b := []*domain.Bucket{{StartMs: 0, Count: 10, Events: []domain.Event{e, e, e, e, e, e, e, e, e, e}}}

	plain := DefaultConfig()
	scaled := DefaultConfig()
	scaled.VolumeScaling = true

	want := SEI(b, plain)[0].Value * math.Log(2)
	if got := SEI(b, scaled)[0].Value; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBucketSEI_EmptyBucketIsZero(t *testing.T) {
	if got := BucketSEI(&domain.Bucket{}, DefaultConfig()); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestRelativeSpike(t *testing.T) {
	sei := domain.Series{
		{TimestampMs: 3, Value: 30},
		{TimestampMs: 1, Value: 10},
		{TimestampMs: 2, Value: 10},
	}

	res := RelativeSpike(sei, 5)

	if len(res) != 3 {
		t.Fatalf("expected 3 points, got %d", len(res))
	}
	if res[0].TimestampMs != 1 || res[0].Value != 1 {
		t.Errorf("first point should be neutral 1, got %+v", res[0])
	}
	if math.Abs(res[1].Value-1) > 1e-6 {
		t.Errorf("expected ~1, got %v", res[1].Value)
	}
	if math.Abs(res[2].Value-3) > 1e-6 {
		t.Errorf("expected ~3, got %v", res[2].Value)
	}
}

func TestRelativeSpike_ZeroHistory(t *testing.T) {
	sei := domain.Series{{TimestampMs: 1, Value: 0}, {TimestampMs: 2, Value: 5}}
	res := RelativeSpike(sei, 3)
	if res[1].Value != 0 {
		t.Errorf("expected 0 when previous mean is zero, got %v", res[1].Value)
	}
}
