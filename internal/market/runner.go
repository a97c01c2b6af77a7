// Package market runs the daily batch: one analysis per asset, then an
// aggregate briefing across all of them.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"MarketBrief/internal/analysis"
	"MarketBrief/internal/metrics"
	"MarketBrief/internal/model"
)

// Progress percentages of the batch stages.
const (
	PercentAssets    = 70
	PercentAuxiliary = 80
	PercentDone      = 100
)

// AssetAnalyzer produces the analysis of one asset.
type AssetAnalyzer interface {
	Analyze(ctx context.Context, asset model.Asset) (*model.Analysis, error)
}

// MarketDataSource provides the market-wide news and analytics.
type MarketDataSource interface {
	MarketData(ctx context.Context) (map[string]json.RawMessage, error)
}

// Progress is one step of a running batch. Asset is empty for the
// auxiliary and aggregate stages.
type Progress struct {
	RunID   string
	Asset   string
	Done    int
	Total   int
	Percent int
	Err     error
}

// ProgressFunc receives progress events. It is called from worker goroutines
// but never concurrently.
type ProgressFunc func(Progress)

// Runner executes market batches.
type Runner struct {
	Assets     AssetAnalyzer
	Analyzer   analysis.Analyzer
	MarketData MarketDataSource
	Metrics    *metrics.Recorder
	// Workers bounds the concurrent asset analyses.
	Workers int
	Now     func() time.Time
}

// Run analyses every asset and writes the aggregate briefing. A failing
// asset never aborts the others; the batch status is error only when the
// aggregate analysis fails. The returned error is non-nil only when ctx ends.
func (r *Runner) Run(ctx context.Context, assets []model.Asset, progress ProgressFunc) (*model.BatchResult, error) {
	began := time.Now()
	runID := uuid.NewString()
	logger := log.With().Str("component", "market").Str("run_id", runID).Logger()
	if progress == nil {
		progress = func(Progress) {}
	}

	res := &model.BatchResult{
		RunID:              runID,
		IndividualAnalyses: make(map[string]*model.Analysis, len(assets)),
		FailedAnalyses:     []string{},
		Timestamp:          r.now(),
	}

	var (
		mu   sync.Mutex
		done int
	)
	total := len(assets)
	progress(Progress{RunID: runID, Total: total})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for _, asset := range assets {
		g.Go(func() error {
			a, err := r.Assets.Analyze(gctx, asset)
			if err != nil {
				a = &model.Analysis{Symbol: asset.Name, Error: fmt.Sprintf("analysis failed: %v", err), Timestamp: r.now()}
			}

			mu.Lock()
			defer mu.Unlock()
			res.IndividualAnalyses[asset.Name] = a
			if a.Failed() {
				res.FailedAnalyses = append(res.FailedAnalyses, asset.Name)
				logger.Error().Str("asset", asset.Name).Str("error", a.Error).Msg("asset analysis failed")
			} else {
				logger.Info().Str("asset", asset.Name).Bool("cached", a.Cached).Msg("asset analysed")
			}
			done++
			progress(Progress{RunID: runID, Asset: asset.Name, Done: done, Total: total, Percent: done * PercentAssets / total, Err: err})
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(res.FailedAnalyses)

	if r.MarketData != nil {
		data, err := r.MarketData.MarketData(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("market data unavailable")
		}
		res.AlphaVantageData = data
		progress(Progress{RunID: runID, Done: done, Total: total, Percent: PercentAuxiliary, Err: err})
	}

	payload := analysis.MarketPayload{
		MacroAssets:      map[string]any{},
		TradeAssets:      map[string]any{},
		FailedAnalyses:   res.FailedAnalyses,
		AlphaVantageData: res.AlphaVantageData,
	}
	for _, asset := range assets {
		a := res.IndividualAnalyses[asset.Name]
		if asset.Group == model.GroupMacro {
			payload.MacroAssets[asset.Name] = a
		} else {
			payload.TradeAssets[asset.Name] = a
		}
	}

	text, err := r.Analyzer.Analyze(ctx, payload, analysis.MarketPrompt)
	if err != nil {
		logger.Error().Err(err).Msg("market analysis failed")
		res.Status = model.BatchError
		res.Error = fmt.Sprintf("market analysis failed: %v", err)
	} else {
		res.Status = model.BatchSuccess
		res.MarketAnalysis = text
	}
	progress(Progress{RunID: runID, Done: done, Total: total, Percent: PercentDone, Err: err})

	r.Metrics.Batch(time.Since(began), len(res.FailedAnalyses))
	logger.Info().
		Str("status", string(res.Status)).
		Int("assets", total).
		Int("failed", len(res.FailedAnalyses)).
		Dur("took", time.Since(began)).
		Msg("market batch finished")
	return res, nil
}

func (r *Runner) workers() int {
	if r.Workers <= 0 {
		return 4
	}
	return r.Workers
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}
