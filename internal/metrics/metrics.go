package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imje/scheduled-helper/internal/models"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsfetch_runs_total",
			Help: "Total number of fetch runs by trigger and final status",
		},
		[]string{"trigger", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsfetch_run_duration_seconds",
			Help:    "Duration of fetch runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"trigger"},
	)

	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsfetch_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		},
	)

	EventsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsfetch_run_events_failed_total",
			Help: "Run events that could not be published",
		},
	)
)

// ObserveRun records the outcome of a finished run.
func ObserveRun(r models.RunResult) {
	RunsTotal.WithLabelValues(string(r.Trigger), string(r.Status)).Inc()
	RunDuration.WithLabelValues(string(r.Trigger)).Observe(r.Duration().Seconds())
	if r.Status == models.RunSucceeded {
		LastSuccess.Set(float64(r.FinishedAt.Unix()))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
