package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MarketBrief/internal/cache"
	"MarketBrief/internal/model"
	"MarketBrief/internal/store"
)

// DefaultTTL is how long a finished analysis is reused.
const DefaultTTL = 24 * time.Hour

// Cache keeps the latest successful analysis per symbol.
type Cache struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewCache creates a Cache. A zero ttl selects DefaultTTL; a nil now selects time.Now.
func NewCache(st store.Store, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{store: st, ttl: ttl, now: now}
}

// Key is the storage key of the analysis of symbol, e.g. BTCUSDT_analysis.
func Key(symbol string) string {
	return cache.NormalizeSymbol(symbol) + "_analysis"
}

// Get returns the cached analysis when it is younger than the TTL.
// A missing, expired or unreadable record reports ok == false.
func (c *Cache) Get(ctx context.Context, symbol string) (*model.Analysis, bool, error) {
	raw, err := c.store.Get(ctx, Key(symbol))
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", cache.ErrStore, Key(symbol), err)
	}
	var a model.Analysis
	if err := json.Unmarshal(raw, &a); err != nil || a.Failed() || a.Analysis == "" {
		return nil, false, nil
	}
	if c.now().Sub(a.Timestamp) >= c.ttl {
		return nil, false, nil
	}
	a.Cached = true
	return &a, true, nil
}

// Put stores a successful analysis. Failed analyses are never cached.
func (c *Cache) Put(ctx context.Context, a *model.Analysis) error {
	if a == nil || a.Failed() {
		return nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := c.store.Put(ctx, Key(a.Symbol), raw); err != nil {
		return fmt.Errorf("%w: put %s: %v", cache.ErrStore, Key(a.Symbol), err)
	}
	return nil
}
