package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imje/scheduled-helper/internal/metrics"
	"github.com/imje/scheduled-helper/internal/models"
	"github.com/imje/scheduled-helper/internal/processing"
	"github.com/imje/scheduled-helper/internal/results"
)

const publishTimeout = 10 * time.Second

// ErrMalformedResponse is returned when the API answers 2xx with a body that
// is not JSON.
var ErrMalformedResponse = errors.New("malformed search response")

// Searcher performs the outbound search call.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) ([]byte, error)
}

// Saver persists a successful response.
type Saver interface {
	Save(body []byte, now time.Time) (results.Paths, error)
}

// Publisher announces finished runs.
type Publisher interface {
	Publish(ctx context.Context, result models.RunResult) error
}

// Validator checks a response body before it is saved.
type Validator interface {
	Validate(body []byte) error
}

// URLTracker tells which article URLs earlier runs have not reported yet.
type URLTracker interface {
	Fresh(urls []string, now time.Time) []string
}

// Deps wires a Runner. Only Searcher, Store and Request are required.
type Deps struct {
	Searcher  Searcher
	Store     Saver
	Publisher Publisher
	Validator Validator
	Tracker   URLTracker
	Request   models.SearchRequest
	Log       *slog.Logger
	DebugLog  *slog.Logger
	Now       func() time.Time
}

// Options describe what started a run.
type Options struct {
	Trigger models.Trigger
	Debug   bool
}

// Runner executes one search-and-persist sequence per call. Overlapping
// calls are not coordinated.
type Runner struct {
	search    Searcher
	store     Saver
	publisher Publisher
	validator Validator
	tracker   URLTracker
	request   models.SearchRequest
	log       *slog.Logger
	debugLog  *slog.Logger
	now       func() time.Time
}

// New builds a Runner from its dependencies.
func New(d Deps) *Runner {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.DebugLog == nil {
		d.DebugLog = d.Log
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Runner{
		search:    d.Searcher,
		store:     d.Store,
		publisher: d.Publisher,
		validator: d.Validator,
		tracker:   d.Tracker,
		request:   d.Request,
		log:       d.Log,
		debugLog:  d.DebugLog,
		now:       d.Now,
	}
}

// Run performs one run. The returned result is filled in for both outcomes;
// err is non-nil exactly when the run failed.
func (r *Runner) Run(ctx context.Context, opts Options) (models.RunResult, error) {
	log := r.log
	if opts.Debug {
		log = r.debugLog
	}

	result := models.RunResult{
		RunID:     uuid.NewString(),
		Trigger:   opts.Trigger,
		Debug:     opts.Debug,
		Model:     r.request.Model,
		StartedAt: r.now().UTC(),
	}
	log = log.With(slog.String("run_id", result.RunID), slog.String("trigger", string(opts.Trigger)))

	log.Info("run started", slog.Bool("debug", opts.Debug))
	log.Debug("search request",
		slog.String("model", r.request.Model),
		slog.String("input", r.request.Input),
		slog.String("city", r.request.Location.City),
		slog.String("country", r.request.Location.Country),
		slog.String("search_context_size", string(r.request.SearchContextSize)),
		slog.String("verbosity", string(r.request.Verbosity)),
		slog.String("reasoning_effort", string(r.request.ReasoningEffort)),
	)

	err := r.execute(ctx, log, &result)
	r.finish(ctx, log, &result, err)
	return result, err
}

func (r *Runner) execute(ctx context.Context, log *slog.Logger, result *models.RunResult) error {
	body, err := r.search.Search(ctx, r.request)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	log.Debug("response received",
		slog.Int("bytes", len(body)),
		slog.String("preview", processing.Preview(string(body), 200)),
	)

	if !json.Valid(body) {
		return ErrMalformedResponse
	}
	if r.validator != nil {
		if err := r.validator.Validate(body); err != nil {
			return err
		}
	}

	savedAt := r.now().UTC()
	paths, err := r.store.Save(body, savedAt)
	if err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	result.LatestPath = paths.Latest
	result.TimestampedPath = paths.Timestamped

	summary := processing.Summarize(body)
	result.URLs = summary.URLs
	result.Usage = summary.Usage
	if r.tracker != nil {
		result.NewURLs = r.tracker.Fresh(summary.URLs, savedAt)
	}
	if summary.OutputText != "" {
		log.Debug("output text", slog.String("text", processing.Preview(summary.OutputText, 200)))
	}
	for i, u := range summary.URLs {
		log.Info("news url", slog.Int("n", i+1), slog.String("url", u))
	}
	if summary.Usage != nil {
		log.Debug("token usage", slog.Any("usage", summary.Usage))
	}

	return nil
}

func (r *Runner) finish(ctx context.Context, log *slog.Logger, result *models.RunResult, err error) {
	result.FinishedAt = r.now().UTC()
	if err != nil {
		result.Status = models.RunFailed
		result.Error = err.Error()
		log.Error("run failed", slog.Any("err", err), slog.Duration("took", result.Duration()))
	} else {
		result.Status = models.RunSucceeded
		log.Info("run succeeded",
			slog.String("latest", result.LatestPath),
			slog.String("file", result.TimestampedPath),
			slog.Int("url_count", len(result.URLs)),
			slog.Int("new_url_count", len(result.NewURLs)),
			slog.Duration("took", result.Duration()),
		)
	}

	metrics.ObserveRun(*result)

	if r.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if perr := r.publisher.Publish(pubCtx, *result); perr != nil {
		metrics.EventsFailed.Inc()
		log.Warn("publish run event", slog.Any("err", perr))
	}
}
