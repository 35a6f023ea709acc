package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imje/scheduled-helper/internal/config"
	"github.com/imje/scheduled-helper/internal/dedupe"
	"github.com/imje/scheduled-helper/internal/events"
	"github.com/imje/scheduled-helper/internal/fetcher"
	"github.com/imje/scheduled-helper/internal/logger"
	"github.com/imje/scheduled-helper/internal/models"
	"github.com/imje/scheduled-helper/internal/openai"
	"github.com/imje/scheduled-helper/internal/results"
	"github.com/imje/scheduled-helper/internal/schema"
)

func main() {
	log := logger.New("scheduler")
	cfg, err := config.LoadScheduler()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	store, err := results.NewStore(cfg.OutputDir)
	if err != nil {
		log.Error("init store", slog.Any("err", err))
		os.Exit(1)
	}

	deps := fetcher.Deps{
		Searcher: openai.New(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
		Store:    store,
		Request:  cfg.Search,
		Log:      log,
		DebugLog: logger.NewDebug("scheduler"),
		Tracker:  dedupe.NewURLTracker(cfg.URLCapacity, cfg.URLMemoryTTL),
	}
	if cfg.ResponseSchema != "" {
		v, err := schema.Load(cfg.ResponseSchema)
		if err != nil {
			log.Error("load response schema", slog.Any("err", err))
			os.Exit(1)
		}
		deps.Validator = v
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaAttempts)
		defer pub.Close()
		deps.Publisher = pub
	}
	runner := fetcher.New(deps)

	srv := &server{log: log, runner: runner, store: store, timeout: cfg.Timeout}
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Timeout + 15*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("http server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			stop()
		}
	}()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("scheduler running",
		slog.Duration("interval", cfg.Interval),
		slog.String("output_dir", cfg.OutputDir),
		slog.String("model", cfg.Search.Model),
	)

	runOnce(ctx, runner, cfg.Timeout)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error("server shutdown", slog.Any("err", err))
			}
			cancel()
			return
		case <-ticker.C:
			runOnce(ctx, runner, cfg.Timeout)
		}
	}
}

type runExecutor interface {
	Run(ctx context.Context, opts fetcher.Options) (models.RunResult, error)
}

// runOnce starts one interval run. A failure is already logged by the runner
// and only affects this tick.
func runOnce(ctx context.Context, runner runExecutor, timeout time.Duration) {
	subCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _ = runner.Run(subCtx, fetcher.Options{Trigger: models.TriggerInterval})
}
