// Package cache fronts expensive computations with a stale-while-revalidate
// cache: fresh entries are served directly, stale entries are served while
// one background refresh per key recomputes them.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Lookup results reported to an Observer.
const (
	ResultHit   = "hit"
	ResultStale = "stale"
	ResultMiss  = "miss"
)

// Entry is a cached value and the time it was computed.
type Entry[T any] struct {
	Value      T     `json:"value"`
	StoredAtMs int64 `json:"stored_at_ms"`
}

// Loader computes the value for a key.
type Loader[T any] func(ctx context.Context) (T, error)

// Backend is an optional shared second tier (e.g. Redis).
// Get reports found=false for a missing key without error.
type Backend[T any] interface {
	Get(ctx context.Context, key string) (Entry[T], bool, error)
	Set(ctx context.Context, key string, e Entry[T]) error
}

// Observer receives lookup outcomes, typically *observability.Metrics.
type Observer interface {
	RecordCacheLookup(result string)
	RecordCacheRefreshFailure()
}

// Option configures an SWR cache.
type Option[T any] func(*SWR[T])

// WithBackend adds a second tier consulted on memory misses.
func WithBackend[T any](b Backend[T]) Option[T] {
	return func(c *SWR[T]) { c.backend = b }
}

// WithLogger sets the logger used for refresh and backend failures.
func WithLogger[T any](log zerolog.Logger) Option[T] {
	return func(c *SWR[T]) { c.log = log.With().Str("component", "cache").Logger() }
}

// WithClock overrides time.Now.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *SWR[T]) { c.now = now }
}

// WithRetention bounds how long an entry may be served stale before it is
// dropped from memory. Defaults to ten times the TTL.
func WithRetention[T any](d time.Duration) Option[T] {
	return func(c *SWR[T]) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithObserver reports hits, misses, stale serves and refresh failures.
func WithObserver[T any](o Observer) Option[T] {
	return func(c *SWR[T]) { c.observer = o }
}

// SWR is a per-key stale-while-revalidate cache.
//
// Fresh (age < ttl): served from memory.
// Stale: served immediately; one background refresh starts unless one is
// already running for the key. The refreshing flag is cleared when the
// refresh ends, whether it succeeded or not.
// Miss: computed inline; concurrent misses for a key share one computation.
// Entries older than the retention window count as misses and are swept
// from memory on every store.
type SWR[T any] struct {
	ttl       time.Duration
	retention time.Duration
	now      func() time.Time
	log      zerolog.Logger
	backend  Backend[T]
	observer Observer

	mu         sync.Mutex
	entries    map[string]Entry[T]
	refreshing map[string]bool

	group singleflight.Group
	wg    sync.WaitGroup
}

// New creates an SWR cache with the given freshness window.
func New[T any](ttl time.Duration, opts ...Option[T]) *SWR[T] {
	c := &SWR[T]{
		ttl:        ttl,
		retention:  10 * ttl,
		now:        time.Now,
		log:        zerolog.Nop(),
		entries:    make(map[string]Entry[T]),
		refreshing: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, computing it with load on a miss.
func (c *SWR[T]) Get(ctx context.Context, key string, load Loader[T]) (T, error) {
	e, ok := c.lookup(ctx, key)

	if ok && c.fresh(e) {
		c.observe(ResultHit)
		return e.Value, nil
	}

	if ok {
		c.observe(ResultStale)
		c.startRefresh(ctx, key, load)
		return e.Value, nil
	}

	c.observe(ResultMiss)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		c.store(ctx, key, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Refreshing reports whether a background refresh is running for key.
func (c *SWR[T]) Refreshing(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing[key]
}

// Wait blocks until all background refreshes have finished.
func (c *SWR[T]) Wait() {
	c.wg.Wait()
}

func (c *SWR[T]) lookup(ctx context.Context, key string) (Entry[T], bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.expired(e) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if ok || c.backend == nil {
		return e, ok
	}

	e, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache backend get failed")
		return Entry[T]{}, false
	}
	if ok && c.expired(e) {
		return Entry[T]{}, false
	}
	if ok {
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
	}
	return e, ok
}

func (c *SWR[T]) age(e Entry[T]) time.Duration {
	return c.now().Sub(time.UnixMilli(e.StoredAtMs))
}

func (c *SWR[T]) fresh(e Entry[T]) bool {
	return c.age(e) < c.ttl
}

func (c *SWR[T]) expired(e Entry[T]) bool {
	return c.age(e) >= c.retention
}

func (c *SWR[T]) startRefresh(ctx context.Context, key string, load Loader[T]) {
	c.mu.Lock()
	if c.refreshing[key] {
		c.mu.Unlock()
		return
	}
	c.refreshing[key] = true
	c.mu.Unlock()

	// The refresh outlives the request that triggered it.
	bg := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().Interface("panic", r).Str("key", key).Msg("cache refresh panicked")
				c.observeFailure()
			}
			c.mu.Lock()
			delete(c.refreshing, key)
			c.mu.Unlock()
		}()

		value, err := load(bg)
		if err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("background refresh failed, serving stale value")
			c.observeFailure()
			return
		}
		c.store(bg, key, value)
	}()
}

func (c *SWR[T]) store(ctx context.Context, key string, value T) {
	e := Entry[T]{Value: value, StoredAtMs: c.now().UnixMilli()}

	c.mu.Lock()
	c.entries[key] = e
	for k, old := range c.entries {
		if !c.refreshing[k] && c.expired(old) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()

	if c.backend != nil {
		if err := c.backend.Set(ctx, key, e); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache backend set failed")
		}
	}
}

func (c *SWR[T]) observe(result string) {
	if c.observer != nil {
		c.observer.RecordCacheLookup(result)
	}
}

func (c *SWR[T]) observeFailure() {
	if c.observer != nil {
		c.observer.RecordCacheRefreshFailure()
	}
}
