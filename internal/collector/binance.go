package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"

	"MarketBrief/internal/model"
)

// binanceKlineLimit is the maximum page size of the klines endpoint.
const binanceKlineLimit = 1000

// BinanceFetcher implements Fetcher for crypto pairs using Binance spot klines.
type BinanceFetcher struct {
	client  *binance.Client
	limiter *rate.Limiter
}

// NewBinanceFetcher creates a Binance fetcher. Keys may be empty; klines are public.
func NewBinanceFetcher(apiKey, secretKey, proxyURL string) *BinanceFetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := binance.NewClient(apiKey, secretKey)
	client.HTTPClient = &http.Client{Timeout: 10 * time.Second, Transport: transport}

	return &BinanceFetcher{
		client: client,
		// 10 requests per second with burst of 20
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// WithBaseURL points the client at another REST endpoint.
func (f *BinanceFetcher) WithBaseURL(baseURL string) *BinanceFetcher {
	f.client.BaseURL = baseURL
	return f
}

func (f *BinanceFetcher) Name() string { return "binance" }

// binanceSymbol turns BTC/USDT into BTCUSDT.
func binanceSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// binanceInterval maps a timeframe to the kline interval to request and the
// bucket to resample into (zero when no resampling is needed).
func binanceInterval(tf model.Timeframe) (string, time.Duration, error) {
	switch tf {
	case model.TF90m:
		return "30m", 90 * time.Minute, nil
	case model.TFDaily:
		return "1d", 0, nil
	case model.TFWeek:
		return "1w", 0, nil
	}
	return "", 0, fmt.Errorf("unsupported timeframe %q", tf)
}

// Fetch implements Fetcher.
func (f *BinanceFetcher) Fetch(ctx context.Context, symbol string, tf model.Timeframe, start, end time.Time) (model.Series, error) {
	start, end, err := Window(tf, start, end)
	if err != nil {
		return emptySeries(symbol, tf), err
	}
	interval, bucket, err := binanceInterval(tf)
	if err != nil {
		return emptySeries(symbol, tf), NoData("binance %s: %v", symbol, err)
	}
	if bucket > 0 {
		// The first bucket must start on a boundary or its open and extremes
		// come from a partial set of klines.
		start = start.UTC().Truncate(bucket)
	}

	klines, err := f.klines(ctx, binanceSymbol(symbol), interval, start, end)
	if err != nil {
		return emptySeries(symbol, tf), NoData("binance %s %s: %v", symbol, tf, err)
	}
	bars, err := klinesToBars(klines)
	if err != nil {
		return emptySeries(symbol, tf), NoData("binance %s %s: %v", symbol, tf, err)
	}
	if bucket > 0 {
		bars = Resample(bars, bucket)
	}
	bars = model.Normalize(bars)
	if len(bars) == 0 {
		return emptySeries(symbol, tf), NoData("binance %s %s: no klines between %s and %s",
			symbol, tf, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return model.Series{Symbol: symbol, Timeframe: tf, Bars: bars}, nil
}

// klines pages through the klines endpoint from start to end.
func (f *BinanceFetcher) klines(ctx context.Context, pair, interval string, start, end time.Time) ([]*binance.Kline, error) {
	var all []*binance.Kline
	from := start.UnixMilli()
	to := end.UnixMilli()

	for from <= to {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := f.client.NewKlinesService().
			Symbol(pair).
			Interval(interval).
			StartTime(from).
			EndTime(to).
			Limit(binanceKlineLimit).
			Do(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < binanceKlineLimit {
			break
		}
		from = page[len(page)-1].OpenTime + 1
	}
	return all, nil
}

func klinesToBars(klines []*binance.Kline) ([]model.Bar, error) {
	bars := make([]model.Bar, 0, len(klines))
	for _, k := range klines {
		var vals [5]float64
		for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse kline at %d: %w", k.OpenTime, err)
			}
			vals[i] = v
		}
		bars = append(bars, model.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}
