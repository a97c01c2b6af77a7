package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketBrief/internal/model"
)

// ErrNoData marks a soft failure: the provider had nothing usable for the
// requested symbol and timeframe. The wrapping error carries the reason.
var ErrNoData = errors.New("no data")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// Fetch returns the bars of symbol in [start, end], ascending, unique and
	// in UTC. A zero start means the full window of the timeframe policy and a
	// zero end means now. Provider errors and empty results come back as an
	// empty Series with an error wrapping ErrNoData.
	Fetch(ctx context.Context, symbol string, tf model.Timeframe, start, end time.Time) (model.Series, error)
	Name() string
}

// ProviderName returns the name of the fetcher that serves symbol. Fetchers
// that dispatch to others, such as Router, report the fetcher they pick.
func ProviderName(f Fetcher, symbol string) string {
	if r, ok := f.(interface{ NameFor(string) string }); ok {
		return r.NameFor(symbol)
	}
	return f.Name()
}

// NoData builds an ErrNoData error with a human readable reason.
func NoData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNoData, fmt.Sprintf(format, args...))
}

// Window resolves the zero values of start and end against the timeframe policy.
func Window(tf model.Timeframe, start, end time.Time) (time.Time, time.Time, error) {
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		p, ok := model.PolicyFor(tf)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("unsupported timeframe %q", tf)
		}
		start = end.Add(-p.FullWindow)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, NoData("empty window %s..%s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	}
	return start.UTC(), end.UTC(), nil
}

// clip keeps the bars inside [start, end].
func clip(bars []model.Bar, start, end time.Time) []model.Bar {
	out := bars[:0]
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func emptySeries(symbol string, tf model.Timeframe) model.Series {
	return model.Series{Symbol: symbol, Timeframe: tf}
}
