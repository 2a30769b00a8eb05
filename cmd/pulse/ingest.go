package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"crowd-pulse-lab/internal/ingestion"
	"crowd-pulse-lab/internal/logging"
	"crowd-pulse-lab/internal/observability"
	"crowd-pulse-lab/internal/storage"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		url       string
		assets    []string
		useMemory bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Consume the websocket engagement feed into the event store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("url") {
				a.cfg.Ingest.URL = url
			}
			if cmd.Flags().Changed("use-memory") {
				a.cfg.Storage.UseMemory = useMemory
			}
			if a.cfg.Ingest.URL == "" {
				return fmt.Errorf("--url or PULSE_INGEST_URL is required")
			}
			return a.ingest(cmd.Context(), assets)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Websocket feed URL")
	cmd.Flags().StringSliceVar(&assets, "assets", nil, "Assets to subscribe to (default all)")
	cmd.Flags().BoolVar(&useMemory, "use-memory", false, "Use in-memory storage (events are lost on exit)")
	return cmd
}

func (a *app) ingest(parent context.Context, assets []string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(a.cfg.Server.MetricsNamespace, nil)

	stores, cleanup, err := createStores(ctx, a.cfg.Storage, logging.Component(a.log, "storage"))
	if err != nil {
		return err
	}
	defer cleanup()
	stores = storage.Instrument(stores, metrics)

	runner := newIngestRunner(a, stores.Events, assets, metrics)
	err = runner.Run(ctx)
	a.log.Info().Int64("stored", runner.Stored()).Msg("ingestion finished")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newIngestRunner wires the websocket source to store.
func newIngestRunner(a *app, store storage.EventStore, assets []string, metrics *observability.Metrics) *ingestion.Runner {
	cfg := a.cfg.Ingest
	log := logging.Component(a.log, "ingestion")

	wsCfg := ingestion.DefaultWSConfig()
	if cfg.MaxBackoff > 0 {
		wsCfg.MaxReconnectDelay = cfg.MaxBackoff
	}

	source := ingestion.NewWSEventSource(ingestion.WSOptions{
		Endpoint: cfg.URL,
		Assets:   assets,
		Config:   &wsCfg,
		Logger:   log,
		Recorder: metrics,
	})

	return ingestion.NewRunner(ingestion.RunnerOptions{
		Source:        source,
		Store:         store,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Logger:        log,
		Recorder:      metrics,
	})
}
