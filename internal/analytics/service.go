package analytics

import (
	"context"
	"fmt"

	"crowd-pulse-lab/internal/cache"
	"crowd-pulse-lab/internal/idhash"
)

// Service fronts a Runner with a stale-while-revalidate cache keyed by
// asset, interval, window and engine parameters.
type Service struct {
	runner *Runner
	cache  *cache.SWR[*Report]
}

// NewService creates a Service. A nil cache computes every request.
func NewService(runner *Runner, c *cache.SWR[*Report]) *Service {
	return &Service{runner: runner, cache: c}
}

// Report returns the analysis for req, from cache when possible.
func (s *Service) Report(ctx context.Context, req Request) (*Report, error) {
	load := func(ctx context.Context) (*Report, error) {
		return s.runner.Run(ctx, req)
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Get(ctx, s.Key(req), load)
}

// Key returns the cache key for req.
func (s *Service) Key(req Request) string {
	params := fmt.Sprintf("%d|%d|%s", req.StartMs, req.EndMs, s.runner.Config().Fingerprint())
	return idhash.ComputeReportKey(req.Asset, s.runner.IntervalFor(req), params)
}
