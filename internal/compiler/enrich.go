package compiler

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	"MarketBrief/internal/model"
)

// Auxiliary fact names, as they appear in the document.
const (
	FactOrderBook   = "order_book"
	FactFundingRate = "funding_rate"
	FactFearGreed   = "fear_greed_index"
)

// Derivatives provides funding rates and order books of perpetual contracts.
type Derivatives interface {
	FundingRate(ctx context.Context, symbol string) (float64, error)
	OrderBook(ctx context.Context, symbol string) (*model.OrderBook, error)
}

// Sentiment provides the market-wide crypto sentiment index.
type Sentiment interface {
	FearGreed(ctx context.Context) (string, error)
}

// Enricher attaches best-effort auxiliary facts to a document. Either source
// may be nil.
type Enricher struct {
	Derivatives Derivatives
	Sentiment   Sentiment
	Timeout     time.Duration
}

// Enrich adds the order book, funding rate and fear & greed index for crypto
// assets. Absent facts are recorded in doc.Unavailable; nothing here fails.
func (e *Enricher) Enrich(ctx context.Context, doc *model.Document, asset model.Asset) {
	if asset.Class != model.ClassCrypto {
		return
	}
	logger := log.With().Str("component", "enrich").Str("symbol", asset.Ticker).Logger()

	if e.Derivatives == nil {
		doc.MarkUnavailable(FactOrderBook, "no derivatives source configured")
		doc.MarkUnavailable(FactFundingRate, "no derivatives source configured")
	} else {
		cctx, cancel := e.withTimeout(ctx)
		book, err := e.Derivatives.OrderBook(cctx, asset.Ticker)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("order book unavailable")
			doc.MarkUnavailable(FactOrderBook, err.Error())
		} else {
			doc.OrderBook = book
		}

		cctx, cancel = e.withTimeout(ctx)
		rate, err := e.Derivatives.FundingRate(cctx, asset.Ticker)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("funding rate unavailable")
			doc.MarkUnavailable(FactFundingRate, err.Error())
		} else {
			doc.FundingRate = null.FloatFrom(rate)
		}
	}

	if e.Sentiment == nil {
		doc.MarkUnavailable(FactFearGreed, "no sentiment source configured")
		return
	}
	cctx, cancel := e.withTimeout(ctx)
	defer cancel()
	fg, err := e.Sentiment.FearGreed(cctx)
	if err != nil {
		logger.Warn().Err(err).Msg("fear and greed index unavailable")
		doc.MarkUnavailable(FactFearGreed, err.Error())
		return
	}
	doc.FearGreed = null.StringFrom(fg)
}

func (e *Enricher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.Timeout)
}
