package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"MarketBrief/internal/analysis"
	"MarketBrief/internal/cache"
	"MarketBrief/internal/collector"
	"MarketBrief/internal/compiler"
	"MarketBrief/internal/config"
	"MarketBrief/internal/logger"
	"MarketBrief/internal/market"
	"MarketBrief/internal/metrics"
	"MarketBrief/internal/model"
	"MarketBrief/internal/pipeline"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/store"
)

// App holds the wired components shared by every command.
type App struct {
	Config   *config.Config
	Assets   []model.Asset
	Metrics  *metrics.Recorder
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Recorder recorder.Recorder
}

// newApp loads configuration and wires storage, fetchers, cache and pipeline.
// The analyzer is attached only when needAnalysis is set.
func newApp(ctx context.Context, cfgPath string, quietStdout, needAnalysis bool) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	output := cfg.Log.Output
	if quietStdout && output == "stdout" {
		output = "stderr"
	}
	if _, err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Assets: cfg.AssetTable(), Metrics: metrics.New()}

	app.Store, err = store.Open(ctx, store.Options{
		Backend: cfg.Cache.Backend,
		Dir:     cfg.Cache.Dir,
		Path:    cfg.Cache.Path,
		Redis: store.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	log.Info().Str("backend", cfg.Cache.Backend).Msg("cache store opened")

	crypto := collector.NewBinanceFetcher(cfg.Binance.APIKey, cfg.Binance.SecretKey, cfg.Proxy)
	if cfg.Binance.BaseURL != "" {
		crypto.WithBaseURL(cfg.Binance.BaseURL)
	}
	router := collector.NewRouter(collector.NewYahooFetcher(cfg.Proxy), crypto, app.Assets)

	c := cache.New(app.Store, router,
		cache.WithFetchTimeout(cfg.Cache.FetchTimeout),
		cache.WithMetrics(app.Metrics),
		cache.WithLogger(logger.Component("cache")),
	)

	derivatives := collector.NewDerivativesSource(cfg.Binance.APIKey, cfg.Binance.SecretKey, cfg.Proxy)
	derivatives.Depth = cfg.Binance.Depth
	if cfg.Binance.FuturesURL != "" {
		derivatives.WithBaseURL(cfg.Binance.FuturesURL)
	}

	p := pipeline.New(c, nil)
	p.Enricher = &compiler.Enricher{
		Derivatives: derivatives,
		Sentiment:   collector.NewSentimentSource(),
		Timeout:     15 * time.Second,
	}
	p.Metrics = app.Metrics
	p.Timeout = cfg.Market.Timeout

	if needAnalysis {
		if err := cfg.RequireAnalysis(); err != nil {
			app.Close()
			return nil, err
		}
		analyzer, err := analysis.NewOpenAIAnalyzer(analysis.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.OpenAI.Timeout,
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		p.Analyzer = analyzer
		p.AnalysisCache = analysis.NewCache(app.Store, cfg.OpenAI.CacheTTL, nil)
	}
	app.Pipeline = p

	app.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			app.Recorder = sr
		}
	}
	return app, nil
}

// Runner returns a market batch runner over the app pipeline.
func (a *App) Runner() *market.Runner {
	return &market.Runner{
		Assets:     a.Pipeline,
		Analyzer:   a.Pipeline.Analyzer,
		MarketData: collector.NewAlphaVantage(a.Config.AlphaVantage.APIKey),
		Metrics:    a.Metrics,
		Workers:    a.Config.Market.Workers,
	}
}

// Close releases the store and recorder.
func (a *App) Close() {
	if a.Recorder != nil {
		if err := a.Recorder.Close(); err != nil {
			log.Warn().Err(err).Msg("close recorder")
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}
}
