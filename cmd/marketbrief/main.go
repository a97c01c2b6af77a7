package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"MarketBrief/internal/market"
	"MarketBrief/internal/model"
	"MarketBrief/internal/notifier"
	"MarketBrief/internal/scheduler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "marketbrief",
		Short:        "Multi-timeframe market analysis and daily briefings",
		SilenceUsage: true,
	}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "path to the YAML config file")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newAnalyzeCmd(&cfgPath),
		newCompileCmd(&cfgPath),
		newMarketCmd(&cfgPath),
	)
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCompileCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "compile <symbol>",
		Short:   "Print the compiled multi-timeframe document of a symbol",
		Example: "  marketbrief compile BTC/USDT\n  marketbrief compile SPX",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := newApp(ctx, *cfgPath, true, false)
			if err != nil {
				return err
			}
			defer app.Close()

			doc, err := app.Pipeline.Build(ctx, model.ResolveAsset(app.Assets, args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		},
	}
}

func newAnalyzeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "analyze <symbol>",
		Short:   "Analyse one symbol across all timeframes",
		Example: "  marketbrief analyze AAPL\n  marketbrief analyze ETH/USDT",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := newApp(ctx, *cfgPath, true, true)
			if err != nil {
				return err
			}
			defer app.Close()

			a, err := app.Pipeline.Analyze(ctx, model.ResolveAsset(app.Assets, args[0]))
			if err != nil {
				return err
			}
			if err := app.Recorder.RecordAnalysis(a); err != nil {
				log.Warn().Err(err).Msg("record analysis")
			}
			if err := printJSON(cmd, a); err != nil {
				return err
			}
			if a.Failed() {
				return errors.New(a.Error)
			}
			return nil
		},
	}
}

func newMarketCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Run one market batch over every configured asset and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := newApp(ctx, *cfgPath, true, true)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Runner().Run(ctx, app.Assets, func(p market.Progress) {
				log.Info().Str("asset", p.Asset).Int("done", p.Done).Int("total", p.Total).Int("percent", p.Percent).Msg("progress")
			})
			if err != nil {
				return err
			}
			if err := app.Recorder.RecordBatch(res); err != nil {
				log.Warn().Err(err).Msg("record batch")
			}
			return printJSON(cmd, res)
		},
	}
}

func newServeCmd(cfgPath *string) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daily scheduler, Telegram commands and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, err := newApp(ctx, *cfgPath, false, true)
			if err != nil {
				return err
			}
			defer app.Close()
			cfg := app.Config
			if err := cfg.RequireTelegram(); err != nil {
				return err
			}

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

			sched := scheduler.NewScheduler(ctx, app.Runner(), app.Pipeline, tn, app.Recorder, app.Assets)
			if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
				return fmt.Errorf("register cron tasks: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")

			srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(app), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("metrics server")
				}
			}()

			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("run on start enabled, executing market batch now")
				go sched.RunMarketNow()
			}

			log.Info().Str("cron", cfg.Schedule.DailyCron).Int("assets", len(app.Assets)).Msg("marketbrief is running")
			<-ctx.Done()

			log.Info().Msg("shutdown signal received, stopping")
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run the market batch immediately")
	return cmd
}

func metricsMux(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}
