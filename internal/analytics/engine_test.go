package analytics

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/lookup"
)

func fixtureInput() Input {
	var in Input
	in.Asset = FixtureAsset
	for _, e := range FixtureEvents() {
		in.Events = append(in.Events, *e)
	}
	for _, s := range FixtureSnapshots() {
		in.Snapshots = append(in.Snapshots, *s)
	}
	var liquidity []domain.LiquidityPoint
	for _, p := range FixtureLiquidity() {
		liquidity = append(liquidity, *p)
	}
	in.Liquidity = lookup.FromPoints(liquidity)
	in.PoolAddresses = []string{fixturePool}
	return in
}

func TestEngine_Analyze_Deterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	first, err := engine.Analyze(fixtureInput())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := engine.Analyze(fixtureInput())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical reports for identical input")
	}
}

func TestEngine_Analyze_InputOrderIndependent(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	in := fixtureInput()
	want, err := engine.Analyze(in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	reversed := fixtureInput()
	for i, j := 0, len(reversed.Events)-1; i < j; i, j = i+1, j-1 {
		reversed.Events[i], reversed.Events[j] = reversed.Events[j], reversed.Events[i]
	}
	for i, j := 0, len(reversed.Snapshots)-1; i < j; i, j = i+1, j-1 {
		reversed.Snapshots[i], reversed.Snapshots[j] = reversed.Snapshots[j], reversed.Snapshots[i]
	}

	got, err := engine.Analyze(reversed)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !reflect.DeepEqual(want, got) {
		t.Error("Expected report to be independent of input order")
	}
}

func TestEngine_Analyze_Shape(t *testing.T) {
	report, err := NewEngine(DefaultConfig()).Analyze(fixtureInput())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.BucketCount != 144 {
		t.Errorf("Expected 144 buckets, got %d", report.BucketCount)
	}
	if len(report.SEI) != report.BucketCount {
		t.Errorf("Expected one SEI point per bucket, got %d", len(report.SEI))
	}
	if len(report.FOMO) != len(report.SEI) {
		t.Errorf("Expected FOMO aligned with SEI, got %d vs %d", len(report.FOMO), len(report.SEI))
	}
	if len(report.SEIVelocity) != len(report.SEI) {
		t.Errorf("Expected velocity aligned with SEI, got %d vs %d", len(report.SEIVelocity), len(report.SEI))
	}
	if len(report.Spikes) == 0 {
		t.Error("Expected the fixture spike to be detected")
	}
	if report.Hype < 0 || report.Hype > 100 {
		t.Errorf("Expected hype in [0, 100], got %f", report.Hype)
	}
	if len(report.Risk) != 6 {
		t.Fatalf("Expected 6 hourly risk points, got %d", len(report.Risk))
	}

	flagged := false
	for _, p := range report.Risk {
		if p.CoordinatedSellFlag {
			flagged = true
		}
		if p.Score < 0 || p.Score > 1 {
			t.Errorf("Expected risk score in [0, 1], got %f", p.Score)
		}
	}
	if !flagged {
		t.Error("Expected the fixture sell-off to raise the coordinated sell flag")
	}
}

func TestEngine_Analyze_Empty(t *testing.T) {
	report, err := NewEngine(DefaultConfig()).Analyze(Input{Asset: "EMPTY"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	for _, m := range domain.AllMetrics {
		s, err := report.Series(m)
		if err != nil {
			t.Errorf("Series(%s) failed: %v", m, err)
		}
		if len(s) != 0 {
			t.Errorf("Expected empty %s series, got %d points", m, len(s))
		}
	}
}

func TestReport_Series_AllMetrics(t *testing.T) {
	report, err := NewEngine(DefaultConfig()).Analyze(fixtureInput())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	for _, m := range domain.AllMetrics {
		s, err := report.Series(m)
		if err != nil {
			t.Errorf("Series(%s) failed: %v", m, err)
			continue
		}
		if len(s) == 0 {
			t.Errorf("Expected %s to have points", m)
		}
		if !s.IsSorted() {
			t.Errorf("Expected %s to be ascending by timestamp", m)
		}
		for _, p := range s {
			if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
				t.Errorf("Expected finite %s values, got %f", m, p.Value)
				break
			}
		}

		if _, err := report.Detail(m); err != nil {
			t.Errorf("Detail(%s) failed: %v", m, err)
		}
	}
}

func TestReport_Series_UnknownMetric(t *testing.T) {
	report := &Report{}

	_, err := report.Series(domain.Metric("volume"))
	if !errors.Is(err, domain.ErrUnknownMetric) {
		t.Errorf("Expected ErrUnknownMetric, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.IntervalMinutes = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero interval")
	}

	cfg = DefaultConfig()
	cfg.RSI.Method = "kalman"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown RSI method")
	}

	cfg = DefaultConfig()
	cfg.Holders.SellWindow = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero sell window")
	}
}

func TestConfig_Fingerprint(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Expected equal configs to share a fingerprint")
	}

	b.Momentum.Tau = 30
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("Expected different configs to have different fingerprints")
	}
}
