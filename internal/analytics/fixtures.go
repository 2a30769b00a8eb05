package analytics

import (
	"context"
	"fmt"

	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/storage"
)

// FixtureAsset is the asset LoadFixtures populates.
const FixtureAsset = "DEMO"

// fixtureStartMs is 2024-01-01 00:00:00 UTC.
const fixtureStartMs int64 = 1704067200000

// LoadFixtures populates stores with a deterministic demo data set:
// a day of engagement that builds into a spike, and a holder base in which
// a whale and several retail wallets sell into the pool.
// Nil optional stores are skipped.
func LoadFixtures(
	ctx context.Context,
	eventStore storage.EventStore,
	snapshotStore storage.HolderSnapshotStore,
	poolStore storage.PoolAddressStore,
	liquidityStore storage.LiquidityTimeseriesStore,
) error {
	if err := loadEvents(ctx, eventStore); err != nil {
		return fmt.Errorf("load fixture events: %w", err)
	}
	if snapshotStore != nil {
		if err := loadSnapshots(ctx, snapshotStore); err != nil {
			return fmt.Errorf("load fixture snapshots: %w", err)
		}
	}
	if poolStore != nil {
		if err := loadPools(ctx, poolStore); err != nil {
			return fmt.Errorf("load fixture pools: %w", err)
		}
	}
	if liquidityStore != nil {
		if err := loadLiquidity(ctx, liquidityStore); err != nil {
			return fmt.Errorf("load fixture liquidity: %w", err)
		}
	}
	return nil
}

// FixtureEvents returns the demo engagement events: 144 five-minute steps
// with slow growth, a spike around step 100 and a whale post at its peak.
func FixtureEvents() []*domain.Event {
	const steps = 144
	events := make([]*domain.Event, 0, steps*2)

	for i := 0; i < steps; i++ {
		ts := fixtureStartMs + int64(i)*5*60*1000
		base := int64(2 + i/12)
		if i >= 96 && i < 108 {
			base *= int64(4 + (i - 96))
		}

		sentiment := float64(i%7-3) / 4
		events = append(events, &domain.Event{
			ID:              fmt.Sprintf("post_%04d_a", i),
			Asset:           FixtureAsset,
			Author:          fmt.Sprintf("author_%02d", i%13),
			TimestampMs:     ts + 30_000,
			Likes:           base * 3,
			Comments:        base,
			Retweets:        base / 2,
			Impressions:     base * 40,
			AuthorFollowers: int64(200 + (i%13)*150),
			Sentiment:       &sentiment,
		})

		if i%3 == 0 {
			events = append(events, &domain.Event{
				ID:              fmt.Sprintf("post_%04d_b", i),
				Asset:           FixtureAsset,
				Author:          "reply_guy",
				TimestampMs:     ts + 150_000,
				Likes:           base,
				Comments:        base * 2,
				Impressions:     base * 10,
				AuthorFollowers: 80,
			})
		}
	}

	whaleSentiment := 0.9
	events = append(events, &domain.Event{
		ID:              "post_whale",
		Asset:           FixtureAsset,
		Author:          "big_account",
		TimestampMs:     fixtureStartMs + 102*5*60*1000 + 60_000,
		Likes:           4_000,
		Comments:        600,
		Retweets:        1_500,
		Impressions:     250_000,
		AuthorFollowers: 480_000,
		Sentiment:       &whaleSentiment,
	})

	return events
}

// fixturePool is the demo liquidity pool vault.
const fixturePool = "pool_vault"

// FixtureSnapshots returns the demo holder snapshots: six hourly
// observations of one pool, two whales and five retail wallets.
func FixtureSnapshots() []*domain.HolderSnapshot {
	const hour = 60 * 60 * 1000

	balances := map[string][6]float64{
		fixturePool: {50_000_000, 50_000_000, 52_000_000, 55_000_000, 61_000_000, 70_000_000},
		"whale_a":   {20_000_000, 20_000_000, 20_000_000, 12_000_000, 5_000_000, 5_000_000},
		"whale_b":   {15_000_000, 15_000_000, 15_000_000, 15_000_000, 15_000_000, 15_000_000},
		"retail_1":  {400_000, 400_000, 350_000, 200_000, 200_000, 200_000},
		"retail_2":  {250_000, 300_000, 300_000, 300_000, 100_000, 0},
		"retail_3":  {900_000, 900_000, 900_000, 900_000, 900_000, 900_000},
		"retail_4":  {0, 120_000, 120_000, 120_000, 60_000, 60_000},
		"retail_5":  {75_000, 75_000, 75_000, 75_000, 75_000, 75_000},
	}
	addresses := []string{fixturePool, "whale_a", "whale_b", "retail_1", "retail_2", "retail_3", "retail_4", "retail_5"}

	snapshots := make([]*domain.HolderSnapshot, 0, len(addresses)*6)
	for h := 0; h < 6; h++ {
		for _, addr := range addresses {
			amount := balances[addr][h]
			if amount == 0 {
				continue
			}
			snapshots = append(snapshots, &domain.HolderSnapshot{
				Asset:       FixtureAsset,
				Address:     addr,
				Amount:      amount,
				TimestampMs: fixtureStartMs + int64(h)*hour + 5*60*1000,
			})
		}
	}
	return snapshots
}

// FixtureLiquidity returns hourly pool liquidity that thins as holders sell.
func FixtureLiquidity() []*domain.LiquidityPoint {
	const hour = 60 * 60 * 1000
	levels := []float64{80_000_000, 78_000_000, 70_000_000, 52_000_000, 30_000_000, 18_000_000}

	points := make([]*domain.LiquidityPoint, len(levels))
	for h, l := range levels {
		points[h] = &domain.LiquidityPoint{
			Asset:       FixtureAsset,
			TimestampMs: fixtureStartMs + int64(h)*hour,
			Liquidity:   l,
		}
	}
	return points
}

func loadEvents(ctx context.Context, store storage.EventStore) error {
	return store.InsertBulk(ctx, FixtureEvents())
}

func loadSnapshots(ctx context.Context, store storage.HolderSnapshotStore) error {
	return store.InsertBulk(ctx, FixtureSnapshots())
}

func loadPools(ctx context.Context, store storage.PoolAddressStore) error {
	return store.Insert(ctx, &domain.PoolAddress{
		Asset:   FixtureAsset,
		Address: fixturePool,
		Label:   "demo-amm",
	})
}

func loadLiquidity(ctx context.Context, store storage.LiquidityTimeseriesStore) error {
	return store.InsertBulk(ctx, FixtureLiquidity())
}
