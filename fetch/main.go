package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imje/scheduled-helper/internal/config"
	"github.com/imje/scheduled-helper/internal/events"
	"github.com/imje/scheduled-helper/internal/fetcher"
	"github.com/imje/scheduled-helper/internal/logger"
	"github.com/imje/scheduled-helper/internal/models"
	"github.com/imje/scheduled-helper/internal/openai"
	"github.com/imje/scheduled-helper/internal/results"
	"github.com/imje/scheduled-helper/internal/schema"
)

type options struct {
	debug      bool
	configFile string
	outputDir  string
	trigger    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "fetch",
		Short:         "Fetch positive news from Norway once and store the response",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "log at debug level for this run")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "search bundle YAML (overrides SEARCH_CONFIG_FILE)")
	cmd.Flags().StringVar(&opts.outputDir, "out", "", "output directory (overrides OUTPUT_DIR)")
	cmd.Flags().StringVar(&opts.trigger, "trigger", "", "interval or manual; derived from GITHUB_EVENT_NAME when empty")

	return cmd
}

func run(ctx context.Context, opts options) error {
	log := logger.New("fetch")

	trigger, err := parseTrigger(opts.trigger, os.Getenv("GITHUB_EVENT_NAME"))
	if err != nil {
		log.Error("parse flags", slog.Any("err", err))
		return err
	}

	cfg, err := config.LoadFetch(opts.configFile)
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		return err
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}

	runner, cleanup, err := buildRunner(cfg, log, logger.NewDebug("fetch"))
	if err != nil {
		log.Error("init", slog.Any("err", err))
		return err
	}
	defer cleanup()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	_, err = runner.Run(runCtx, fetcher.Options{Trigger: trigger, Debug: opts.debug})
	return err
}

func buildRunner(cfg *config.Fetch, log, debugLog *slog.Logger) (*fetcher.Runner, func(), error) {
	store, err := results.NewStore(cfg.OutputDir)
	if err != nil {
		return nil, nil, err
	}

	deps := fetcher.Deps{
		Searcher: openai.New(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
		Store:    store,
		Request:  cfg.Search,
		Log:      log,
		DebugLog: debugLog,
	}

	if cfg.ResponseSchema != "" {
		v, err := schema.Load(cfg.ResponseSchema)
		if err != nil {
			return nil, nil, err
		}
		deps.Validator = v
	}

	cleanup := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaAttempts)
		deps.Publisher = pub
		cleanup = func() {
			if err := pub.Close(); err != nil {
				log.Warn("close event publisher", slog.Any("err", err))
			}
		}
	}

	return fetcher.New(deps), cleanup, nil
}

func parseTrigger(flag, eventName string) (models.Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "interval":
		return models.TriggerInterval, nil
	case "manual":
		return models.TriggerManual, nil
	case "":
	default:
		return "", fmt.Errorf("unknown trigger %q", flag)
	}

	if eventName == "workflow_dispatch" {
		return models.TriggerManual, nil
	}
	return models.TriggerInterval, nil
}
