// Package pipeline runs one instrument from cached price history to a
// compiled document and its analysis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"MarketBrief/internal/analysis"
	"MarketBrief/internal/cache"
	"MarketBrief/internal/calculator"
	"MarketBrief/internal/collector"
	"MarketBrief/internal/compiler"
	"MarketBrief/internal/metrics"
	"MarketBrief/internal/model"
)

// Analysis call statuses reported to metrics.
const (
	StatusOK     = "ok"
	StatusCached = "cached"
	StatusFailed = "failed"
)

// Pipeline wires the cache, indicator engine, compiler and analyzer.
// Enricher, AnalysisCache and Metrics are optional.
type Pipeline struct {
	Cache         *cache.Cache
	Enricher      *compiler.Enricher
	Analyzer      analysis.Analyzer
	AnalysisCache *analysis.Cache
	Metrics       *metrics.Recorder
	Params        calculator.Params
	Timeframes    []model.Timeframe
	// Timeout bounds each timeframe refresh.
	Timeout time.Duration
	Now     func() time.Time
}

// New creates a Pipeline with the default timeframes and indicator parameters.
func New(c *cache.Cache, a analysis.Analyzer) *Pipeline {
	return &Pipeline{
		Cache:      c,
		Analyzer:   a,
		Params:     calculator.DefaultParams,
		Timeframes: model.Timeframes,
		Timeout:    time.Minute,
		Now:        time.Now,
	}
}

// Build compiles the document of asset across every timeframe. Timeframes
// without data become markers. It returns collector.ErrNoData when no
// timeframe produced data, and cache.ErrStore failures as they are.
func (p *Pipeline) Build(ctx context.Context, asset model.Asset) (*model.Document, error) {
	logger := log.With().Str("component", "pipeline").Str("asset", asset.Name).Logger()

	results := make([]compiler.Result, 0, len(p.timeframes()))
	ok := 0
	for _, tf := range p.timeframes() {
		series, err := p.refresh(ctx, asset.Ticker, tf)
		if err != nil {
			if !errors.Is(err, collector.ErrNoData) {
				return nil, fmt.Errorf("%s %s: %w", asset.Name, tf, err)
			}
			logger.Warn().Err(err).Str("timeframe", string(tf)).Msg("timeframe unavailable")
			results = append(results, compiler.Result{Timeframe: tf, Err: err})
			continue
		}
		frame := calculator.AddIndicatorsWith(series, p.params())
		results = append(results, compiler.Result{Timeframe: tf, Frame: frame})
		ok++
	}
	if ok == 0 {
		return nil, collector.NoData("%s: no timeframe has data", asset.Name)
	}

	doc := compiler.Compile(asset.Ticker, results)
	if p.Enricher != nil {
		p.Enricher.Enrich(ctx, doc, asset)
	}
	logger.Debug().Int("timeframes", ok).Msg("document compiled")
	return doc, nil
}

// Analyze returns the cached analysis of asset or builds the document and
// asks the analyzer. Soft failures are reported inside the returned Analysis;
// only store failures are returned as errors.
func (p *Pipeline) Analyze(ctx context.Context, asset model.Asset) (*model.Analysis, error) {
	if p.AnalysisCache != nil {
		a, ok, err := p.AnalysisCache.Get(ctx, asset.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			p.Metrics.Analysis(StatusCached)
			return a, nil
		}
	}

	now := p.now()
	doc, err := p.Build(ctx, asset)
	if err != nil {
		if errors.Is(err, cache.ErrStore) {
			return nil, err
		}
		p.Metrics.Analysis(StatusFailed)
		return &model.Analysis{Symbol: asset.Name, Error: fmt.Sprintf("data fetch failed: %v", err), Timestamp: now}, nil
	}

	text, err := p.Analyzer.Analyze(ctx, doc, analysis.SystemPrompt)
	if err != nil {
		p.Metrics.Analysis(StatusFailed)
		return &model.Analysis{Symbol: asset.Name, Error: fmt.Sprintf("analysis failed: %v", err), Timestamp: now}, nil
	}
	p.Metrics.Analysis(StatusOK)

	a := &model.Analysis{Symbol: asset.Name, Analysis: text, Timestamp: now}
	if p.AnalysisCache != nil {
		if err := p.AnalysisCache.Put(ctx, a); err != nil {
			log.Warn().Err(err).Str("asset", asset.Name).Msg("analysis not cached")
		}
	}
	return a, nil
}

func (p *Pipeline) refresh(ctx context.Context, symbol string, tf model.Timeframe) (model.Series, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return p.Cache.GetOrRefresh(ctx, symbol, tf)
}

func (p *Pipeline) timeframes() []model.Timeframe {
	if len(p.Timeframes) == 0 {
		return model.Timeframes
	}
	return p.Timeframes
}

func (p *Pipeline) params() calculator.Params {
	if p.Params == (calculator.Params{}) {
		return calculator.DefaultParams
	}
	return p.Params
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}
