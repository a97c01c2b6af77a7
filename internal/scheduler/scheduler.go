package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"MarketBrief/internal/market"
	"MarketBrief/internal/model"
	"MarketBrief/internal/notifier"
	"MarketBrief/internal/recorder"
)

// BatchRunner runs a market batch.
type BatchRunner interface {
	Run(ctx context.Context, assets []model.Asset, progress market.ProgressFunc) (*model.BatchResult, error)
}

// AssetAnalyzer analyses one asset.
type AssetAnalyzer interface {
	Analyze(ctx context.Context, asset model.Asset) (*model.Analysis, error)
}

// Sender delivers text to the user.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron tasks and chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   BatchRunner
	Analyzer AssetAnalyzer
	Notifier Sender
	Recorder recorder.Recorder
	Assets   []model.Asset
	Ctx      context.Context

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner BatchRunner, analyzer AssetAnalyzer, sender Sender, rec recorder.Recorder, assets []model.Asset) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Analyzer: analyzer,
		Notifier: sender,
		Recorder: rec,
		Assets:   assets,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily market batch.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() { s.marketTask() }); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

// RunMarketNow executes the market batch immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunMarketNow() bool {
	return s.marketTask()
}

// marketTask runs one batch unless another is in progress. It reports
// whether the batch ran.
func (s *Scheduler) marketTask() bool {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Msg("market batch already running, skipping")
		return false
	}
	defer s.running.Store(false)

	log.Info().Int("assets", len(s.Assets)).Msg("running market batch")
	res, err := s.Runner.Run(s.Ctx, s.Assets, func(p market.Progress) {
		log.Debug().Str("run_id", p.RunID).Str("asset", p.Asset).Int("percent", p.Percent).Msg("market batch progress")
	})
	if err != nil {
		log.Error().Err(err).Msg("market batch aborted")
		s.trySend(fmt.Sprintf("❌ Market batch aborted: %v", err))
		return true
	}

	if err := s.Recorder.RecordBatch(res); err != nil {
		log.Error().Err(err).Str("run_id", res.RunID).Msg("record batch")
	}
	s.trySend(notifier.FormatBatch(res))
	return true
}

func (s *Scheduler) analyzeTask(asset model.Asset) {
	a, err := s.Analyzer.Analyze(s.Ctx, asset)
	if err != nil {
		log.Error().Err(err).Str("asset", asset.Name).Msg("analysis aborted")
		s.trySend(fmt.Sprintf("❌ %s: %v", asset.Name, err))
		return
	}
	if err := s.Recorder.RecordAnalysis(a); err != nil {
		log.Error().Err(err).Str("asset", asset.Name).Msg("record analysis")
	}
	s.trySend(notifier.FormatAnalysis(a))
}

// HandleCommand processes a user command and returns a reply. Long-running
// commands reply immediately and deliver their result when done.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/market":
		if s.running.Load() {
			return "⏳ A market batch is already running."
		}
		s.background(func() { s.marketTask() })
		return "⏳ Market batch started. The brief follows when it is done."
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL"
		}
		asset := model.ResolveAsset(s.Assets, fields[1])
		s.background(func() { s.analyzeTask(asset) })
		return fmt.Sprintf("⏳ Analysing %s (%s)...", asset.Name, asset.Ticker)
	case "/assets":
		return notifier.FormatAssets(s.Assets)
	default:
		return helpText
	}
}

func (s *Scheduler) background(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

const helpText = "Available commands:\n• /market run the market brief\n• /analyze SYMBOL analyse one instrument\n• /assets list configured assets"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
