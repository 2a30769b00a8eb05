package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"crowd-pulse-lab/internal/analytics"
	"crowd-pulse-lab/internal/api"
	"crowd-pulse-lab/internal/cache"
	"crowd-pulse-lab/internal/logging"
	"crowd-pulse-lab/internal/observability"
	"crowd-pulse-lab/internal/storage"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr      string
		useMemory bool
		fixtures  bool
		ingestURL string
		assets    []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics HTTP API",
		Long:  "Serve cached analytics reports over HTTP. With an ingest URL the websocket feed is consumed in the same process.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("use-memory") {
				a.cfg.Storage.UseMemory = useMemory
			}
			if cmd.Flags().Changed("fixtures") {
				a.cfg.Storage.LoadFixtures = fixtures
			}
			if cmd.Flags().Changed("ingest-url") {
				a.cfg.Ingest.URL = ingestURL
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd.Context(), assets)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	cmd.Flags().BoolVar(&fixtures, "fixtures", false, "Seed memory stores with demo data (requires --use-memory)")
	cmd.Flags().StringVar(&ingestURL, "ingest-url", "", "Websocket feed to ingest while serving")
	cmd.Flags().StringSliceVar(&assets, "assets", nil, "Assets to subscribe to on the feed (default all)")
	return cmd
}

func (a *app) serve(parent context.Context, assets []string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	log := a.log

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(cfg.Server.MetricsNamespace, reg)

	// Stores
	stores, cleanup, err := createStores(ctx, cfg.Storage, logging.Component(log, "storage"))
	if err != nil {
		return err
	}
	defer cleanup()
	stores = storage.Instrument(stores, metrics)

	// Analytics
	runner := analytics.NewRunner(analytics.Options{
		EventStore:               stores.Events,
		HolderSnapshotStore:      stores.Snapshots,
		PoolAddressStore:         stores.Pools,
		LiquidityTimeseriesStore: stores.Liquidity,
		Config:                   cfg.Analytics,
		Logger:                   logging.Component(log, "analytics"),
		Recorder:                 metrics,
	})

	reportCache, closeCache, err := newReportCache(ctx, a, metrics)
	if err != nil {
		return err
	}
	defer closeCache()
	service := analytics.NewService(runner, reportCache)

	// Optional live ingestion
	ingestDone := make(chan error, 1)
	if cfg.Ingest.URL != "" {
		ingestRunner := newIngestRunner(a, stores.Events, assets, metrics)
		go func() { ingestDone <- ingestRunner.Run(ctx) }()
	} else {
		close(ingestDone)
	}

	// HTTP
	server := api.NewServer(service, api.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.WriteTimeout,
		Logger:         logging.Component(log, "api"),
		Metrics:        metrics,
		MetricsHandler: observability.HandlerFor(reg),
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}

	stop()
	if err := <-ingestDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("ingestion stopped with error")
	}
	reportCache.Wait()

	log.Info().Msg("shutdown complete")
	return nil
}

// newReportCache builds the SWR cache, with a Redis tier when configured.
func newReportCache(ctx context.Context, a *app, metrics *observability.Metrics) (*cache.SWR[*analytics.Report], func(), error) {
	cfg := a.cfg.Cache
	log := logging.Component(a.log, "cache")

	opts := []cache.Option[*analytics.Report]{
		cache.WithLogger[*analytics.Report](log),
		cache.WithObserver[*analytics.Report](metrics),
		cache.WithRetention[*analytics.Report](cfg.Retention),
	}
	closeFn := func() {}

	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, cache.WithBackend[*analytics.Report](
			cache.NewRedisBackend[*analytics.Report](client, appName+":report:", cfg.Retention),
		))
		closeFn = func() { client.Close() }
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache tier enabled")
	}

	return cache.New[*analytics.Report](cfg.TTL, opts...), closeFn, nil
}
