package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const alphaVantageURL = "https://www.alphavantage.co/query"

// AnalyticsSymbols are the index ETFs summarised for the market brief.
var AnalyticsSymbols = []string{"SPY", "QQQ", "IWM"}

// AlphaVantage fetches market-wide news, movers and analytics.
type AlphaVantage struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
	Now     func() time.Time
}

// NewAlphaVantage creates a client. The free tier allows 5 calls a minute.
func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{
		BaseURL: alphaVantageURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Every(12*time.Second), 5),
		Now:     time.Now,
	}
}

func (a *AlphaVantage) query(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if a.APIKey == "" {
		return nil, errors.New("alpha vantage api key not configured")
	}
	if a.Limiter != nil {
		if err := a.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	params.Set("apikey", a.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage %s: %w", params.Get("function"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage %s: status %d", params.Get("function"), resp.StatusCode)
	}
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("alpha vantage %s: invalid json", params.Get("function"))
	}
	return json.RawMessage(body), nil
}

// News returns news and sentiment published since from.
func (a *AlphaVantage) News(ctx context.Context, from time.Time, limit int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("time_from", from.UTC().Format("20060102T1504"))
	return a.query(ctx, params)
}

// TopMovers returns the top gainers, losers and most active tickers.
func (a *AlphaVantage) TopMovers(ctx context.Context) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("function", "TOP_GAINERS_LOSERS")
	return a.query(ctx, params)
}

// Analytics returns mean, standard deviation and correlation of daily closes
// of symbols between start and end. RANGE is sent once per bound.
func (a *AlphaVantage) Analytics(ctx context.Context, symbols []string, start, end time.Time) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("function", "ANALYTICS_FIXED_WINDOW")
	params.Set("SYMBOLS", strings.Join(symbols, ","))
	params.Add("RANGE", start.UTC().Format("2006-01-02"))
	params.Add("RANGE", end.UTC().Format("2006-01-02"))
	params.Set("INTERVAL", "DAILY")
	params.Set("OHLC", "close")
	params.Set("CALCULATIONS", "MEAN,STDDEV,CORRELATION")
	return a.query(ctx, params)
}

// MarketData gathers the last day of news, the top movers and 30 days of
// index analytics. Parts that fail are replaced by {"error": reason}; an
// error is returned only when every part failed.
func (a *AlphaVantage) MarketData(ctx context.Context) (map[string]json.RawMessage, error) {
	now := a.Now()
	out := make(map[string]json.RawMessage, 3)
	var errs []error

	put := func(key string, raw json.RawMessage, err error) {
		if err != nil {
			errs = append(errs, err)
			raw, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		out[key] = raw
	}

	news, err := a.News(ctx, now.Add(-24*time.Hour), 20)
	put("news", news, err)
	movers, err := a.TopMovers(ctx)
	put("market_movers", movers, err)
	analytics, err := a.Analytics(ctx, AnalyticsSymbols, now.AddDate(0, 0, -30), now)
	put("analytics", analytics, err)

	if len(errs) == len(out) {
		return out, errors.Join(errs...)
	}
	return out, nil
}
