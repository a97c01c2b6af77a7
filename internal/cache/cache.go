// Package cache implements the per-(symbol, timeframe) price history cache
// with expiry-aware incremental refresh.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"MarketBrief/internal/collector"
	"MarketBrief/internal/metrics"
	"MarketBrief/internal/model"
	"MarketBrief/internal/store"
)

// ErrStore marks a hard failure of the backing store.
var ErrStore = errors.New("cache store failure")

// Cache owns the persisted series of every (symbol, timeframe).
type Cache struct {
	store    store.Store
	fetcher  collector.Fetcher
	policies map[model.Timeframe]model.Policy
	now      func() time.Time
	timeout  time.Duration
	metrics  *metrics.Recorder
	log      zerolog.Logger
	locks    keyedMutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithPolicies replaces the windowing table.
func WithPolicies(p map[model.Timeframe]model.Policy) Option {
	return func(c *Cache) { c.policies = p }
}

// WithFetchTimeout bounds every fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Cache) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New creates a Cache over st that fills misses from f.
func New(st store.Store, f collector.Fetcher, opts ...Option) *Cache {
	c := &Cache{
		store:    st,
		fetcher:  f,
		policies: model.DefaultPolicies,
		now:      time.Now,
		timeout:  30 * time.Second,
		log:      log.With().Str("component", "cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the windowing rule of tf.
func (c *Cache) Policy(tf model.Timeframe) (model.Policy, bool) {
	p, ok := c.policies[tf]
	return p, ok
}

// GetOrRefresh returns the series of (symbol, tf), fetching or extending it
// as the timeframe policy requires.
//
// A miss that cannot be filled returns an empty series and an error wrapping
// collector.ErrNoData. A failed refresh of an existing entry leaves the entry
// untouched and returns its bars. Store failures wrap ErrStore.
func (c *Cache) GetOrRefresh(ctx context.Context, symbol string, tf model.Timeframe) (model.Series, error) {
	empty := model.Series{Symbol: symbol, Timeframe: tf}
	policy, ok := c.Policy(tf)
	if !ok {
		return empty, fmt.Errorf("unsupported timeframe %q", tf)
	}

	key := Key(symbol, tf)
	unlock := c.locks.Lock(key)
	defer unlock()

	now := c.now().UTC()
	cutoff := now.Add(-policy.Retention)
	logger := c.log.With().Str("symbol", symbol).Str("timeframe", string(tf)).Logger()

	entry, found, err := c.load(ctx, key)
	if err != nil {
		return empty, err
	}

	var bars []model.Bar
	if !found {
		c.metrics.CacheOutcome(string(tf), metrics.CacheMiss)
		logger.Debug().Msg("no cache entry, fetching full window")

		fetched, err := c.fetch(ctx, symbol, tf, now.Add(-policy.FullWindow), now)
		if err != nil {
			return empty, err
		}
		bars = fetched
	} else {
		age := now.Sub(entry.LastRefreshed)
		var (
			fetched []model.Bar
			outcome string
		)
		switch {
		case policy.AlwaysRefetch:
			outcome = metrics.CacheRefetch
			fetched, err = c.fetch(ctx, symbol, tf, now.Add(-policy.FullWindow), now)
			if err == nil {
				bars = Merge(entry.Bars, fetched)
			}
		case age <= policy.Expiry:
			outcome = metrics.CacheFresh
			from := now.Add(-policy.FullWindow)
			if n := len(entry.Bars); n > 0 {
				from = entry.Bars[n-1].Time
			}
			fetched, err = c.fetch(ctx, symbol, tf, from, now)
			if err == nil {
				bars = Merge(entry.Bars, fetched)
			}
		default:
			outcome = metrics.CacheStale
			logger.Debug().Dur("age", age).Msg("cache entry expired, refetching full window")
			fetched, err = c.fetch(ctx, symbol, tf, now.Add(-policy.FullWindow), now)
			if err == nil {
				bars = fetched
			}
		}

		if err != nil {
			c.metrics.CacheOutcome(string(tf), metrics.CacheFallback)
			logger.Warn().Err(err).Str("mode", outcome).Msg("refresh failed, serving cached bars")
			kept := Trim(entry.Bars, cutoff)
			if len(kept) == 0 {
				return empty, collector.NoData("%s %s: refresh failed and cached bars are past retention: %v", symbol, tf, err)
			}
			return model.Series{Symbol: symbol, Timeframe: tf, Bars: kept}, nil
		}
		c.metrics.CacheOutcome(string(tf), outcome)
	}

	bars = Trim(bars, cutoff)
	if len(bars) == 0 {
		return empty, collector.NoData("%s %s: no bars within the %s retention window", symbol, tf, policy.Retention)
	}

	next := Entry{Symbol: symbol, Timeframe: tf, Bars: bars, LastRefreshed: now}
	if err := c.save(ctx, key, next); err != nil {
		return empty, err
	}
	logger.Debug().Int("bars", len(bars)).Msg("cache entry persisted")
	return model.Series{Symbol: symbol, Timeframe: tf, Bars: bars}, nil
}

// Entry returns the stored entry of (symbol, tf) without refreshing it.
func (c *Cache) Entry(ctx context.Context, symbol string, tf model.Timeframe) (Entry, bool, error) {
	key := Key(symbol, tf)
	unlock := c.locks.Lock(key)
	defer unlock()
	return c.load(ctx, key)
}

// Invalidate removes the stored entry of (symbol, tf).
func (c *Cache) Invalidate(ctx context.Context, symbol string, tf model.Timeframe) error {
	key := Key(symbol, tf)
	unlock := c.locks.Lock(key)
	defer unlock()
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStore, key, err)
	}
	return nil
}

// load reads and decodes key. Unreadable records count as a miss.
func (c *Cache) load(ctx context.Context, key string) (Entry, bool, error) {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: read %s: %v", ErrStore, key, err)
	}
	entry, err := Decode(data)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("corrupt cache record, treating as miss")
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c *Cache) save(ctx context.Context, key string, e Entry) error {
	data, err := Encode(e)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStore, key, err)
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStore, key, err)
	}
	return nil
}

// fetch calls the fetcher under the fetch timeout. An empty result is an error.
func (c *Cache) fetch(ctx context.Context, symbol string, tf model.Timeframe, start, end time.Time) ([]model.Bar, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	began := time.Now()
	s, err := c.fetcher.Fetch(ctx, symbol, tf, start, end)
	c.metrics.Fetch(collector.ProviderName(c.fetcher, symbol), string(tf), time.Since(began), err)
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			return nil, err
		}
		return nil, collector.NoData("%s %s: %v", symbol, tf, err)
	}
	if s.Empty() {
		return nil, collector.NoData("%s %s: fetcher returned no bars", symbol, tf)
	}
	return model.Normalize(s.Bars), nil
}
