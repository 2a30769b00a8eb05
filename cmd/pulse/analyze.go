package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"crowd-pulse-lab/internal/analytics"
	"crowd-pulse-lab/internal/domain"
	"crowd-pulse-lab/internal/logging"
)

type analyzeFlags struct {
	asset     string
	interval  int
	metric    string
	startMs   int64
	endMs     int64
	useMemory bool
	fixtures  bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute a report for one asset and print it as JSON",
		Example: `  pulse analyze --use-memory --fixtures --asset DEMO
  pulse analyze --asset BONK --metric fomo --interval 15`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("use-memory") {
				a.cfg.Storage.UseMemory = f.useMemory
			}
			if cmd.Flags().Changed("fixtures") {
				a.cfg.Storage.LoadFixtures = f.fixtures
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.analyze(cmd.Context(), f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.asset, "asset", analytics.FixtureAsset, "Asset symbol to analyze")
	cmd.Flags().IntVar(&f.interval, "interval", 0, "Bucket width in minutes (default from config)")
	cmd.Flags().StringVar(&f.metric, "metric", "", "Print a single metric instead of the full report")
	cmd.Flags().Int64Var(&f.startMs, "start", 0, "Range start, epoch milliseconds")
	cmd.Flags().Int64Var(&f.endMs, "end", 0, "Range end, epoch milliseconds")
	cmd.Flags().BoolVar(&f.useMemory, "use-memory", false, "Use in-memory storage")
	cmd.Flags().BoolVar(&f.fixtures, "fixtures", false, "Seed memory stores with demo data")
	return cmd
}

func (a *app) analyze(ctx context.Context, f analyzeFlags, out io.Writer) error {
	var metric domain.Metric
	if f.metric != "" {
		m, err := domain.ParseMetric(f.metric)
		if err != nil {
			return err
		}
		metric = m
	}

	stores, cleanup, err := createStores(ctx, a.cfg.Storage, logging.Component(a.log, "storage"))
	if err != nil {
		return err
	}
	defer cleanup()

	runner := analytics.NewRunner(analytics.Options{
		EventStore:               stores.Events,
		HolderSnapshotStore:      stores.Snapshots,
		PoolAddressStore:         stores.Pools,
		LiquidityTimeseriesStore: stores.Liquidity,
		Config:                   a.cfg.Analytics,
		Logger:                   logging.Component(a.log, "analytics"),
	})

	report, err := runner.Run(ctx, analytics.Request{
		Asset:           f.asset,
		IntervalMinutes: f.interval,
		StartMs:         f.startMs,
		EndMs:           f.endMs,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", f.asset, err)
	}

	var payload any = report
	if f.metric != "" {
		payload, err = report.Detail(metric)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
