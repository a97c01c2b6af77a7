package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	"MarketBrief/internal/model"
)

// DefaultDepth is the number of order book levels kept per side.
const DefaultDepth = 20

// DerivativesSource reads funding rates and order books from Binance
// USDⓈ-M futures.
type DerivativesSource struct {
	client  *futures.Client
	limiter *rate.Limiter
	Depth   int
}

// NewDerivativesSource creates a futures source. Keys may be empty.
func NewDerivativesSource(apiKey, secretKey, proxyURL string) *DerivativesSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := futures.NewClient(apiKey, secretKey)
	client.HTTPClient = &http.Client{Timeout: 10 * time.Second, Transport: transport}
	return &DerivativesSource{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		Depth:   DefaultDepth,
	}
}

// WithBaseURL points the client at another REST endpoint.
func (d *DerivativesSource) WithBaseURL(baseURL string) *DerivativesSource {
	d.client.BaseURL = baseURL
	return d
}

func (d *DerivativesSource) perpetual(symbol string) (string, error) {
	if !model.IsCryptoSymbol(symbol) {
		return "", fmt.Errorf("%s is not a derivatives-eligible instrument", symbol)
	}
	return binanceSymbol(symbol), nil
}

// FundingRate returns the last funding rate of the perpetual on symbol.
func (d *DerivativesSource) FundingRate(ctx context.Context, symbol string) (float64, error) {
	pair, err := d.perpetual(symbol)
	if err != nil {
		return 0, err
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	res, err := d.client.NewPremiumIndexService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("premium index %s: %w", pair, err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("premium index %s: empty response", pair)
	}
	fr, err := strconv.ParseFloat(res[0].LastFundingRate, 64)
	if err != nil {
		return 0, fmt.Errorf("parse funding rate %q: %w", res[0].LastFundingRate, err)
	}
	return fr, nil
}

// OrderBook returns the top Depth bid and ask levels of the perpetual on symbol.
func (d *DerivativesSource) OrderBook(ctx context.Context, symbol string) (*model.OrderBook, error) {
	pair, err := d.perpetual(symbol)
	if err != nil {
		return nil, err
	}
	limit := d.Depth
	if limit <= 0 {
		limit = DefaultDepth
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := d.client.NewDepthService().Symbol(pair).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("depth %s: %w", pair, err)
	}

	book := &model.OrderBook{}
	for i, b := range res.Bids {
		if i >= limit {
			break
		}
		lvl, err := priceLevel(b.Price, b.Quantity)
		if err != nil {
			return nil, err
		}
		book.Bids = append(book.Bids, lvl)
	}
	for i, a := range res.Asks {
		if i >= limit {
			break
		}
		lvl, err := priceLevel(a.Price, a.Quantity)
		if err != nil {
			return nil, err
		}
		book.Asks = append(book.Asks, lvl)
	}
	if len(book.Bids) == 0 && len(book.Asks) == 0 {
		return nil, fmt.Errorf("depth %s: empty book", pair)
	}
	return book, nil
}

func priceLevel(price, qty string) (model.PriceLevel, error) {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return model.PriceLevel{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	q, err := strconv.ParseFloat(qty, 64)
	if err != nil {
		return model.PriceLevel{}, fmt.Errorf("parse quantity %q: %w", qty, err)
	}
	return model.PriceLevel{Price: p, Quantity: q}, nil
}
