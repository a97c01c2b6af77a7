package collector

import (
	"context"
	"fmt"
	"time"

	"MarketBrief/internal/model"
)

// Router dispatches each symbol to the fetcher of its asset class. The class
// comes from the asset table when the ticker is listed there, otherwise from
// the symbol shape.
type Router struct {
	Equity Fetcher
	Crypto Fetcher
	Assets []model.Asset
}

// NewRouter creates a Router.
func NewRouter(equity, crypto Fetcher, assets []model.Asset) *Router {
	return &Router{Equity: equity, Crypto: crypto, Assets: assets}
}

func (r *Router) Name() string { return "router" }

// For returns the fetcher serving symbol.
func (r *Router) For(symbol string) (Fetcher, error) {
	f := r.Equity
	if model.ResolveAsset(r.Assets, symbol).Class == model.ClassCrypto {
		f = r.Crypto
	}
	if f == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", symbol)
	}
	return f, nil
}

// NameFor returns the name of the fetcher serving symbol, or the router's
// own name when none is configured.
func (r *Router) NameFor(symbol string) string {
	f, err := r.For(symbol)
	if err != nil {
		return r.Name()
	}
	return f.Name()
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, symbol string, tf model.Timeframe, start, end time.Time) (model.Series, error) {
	f, err := r.For(symbol)
	if err != nil {
		return emptySeries(symbol, tf), NoData("%v", err)
	}
	return f.Fetch(ctx, symbol, tf, start, end)
}
