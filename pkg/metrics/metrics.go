// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchRunsTotal      *prometheus.CounterVec
	SearchIterations     prometheus.Counter
	SearchImprovements   prometheus.Counter
	SearchFinalDistance  prometheus.Histogram
	SearchDuration       prometheus.Histogram
	ModelCacheHits       prometheus.Counter
	ModelCacheMisses     prometheus.Counter
	ModelsTrainedTotal   prometheus.Counter
	JobsProcessedTotal   *prometheus.CounterVec
	ProgressDropped      prometheus.Counter
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg. Tests
// pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_runs_total",
				Help: "Finished key searches by stop reason (stalled, cancelled).",
			},
			[]string{"reason"},
		),
		SearchIterations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "search_iterations_total",
				Help: "Total candidate keys proposed across all searches.",
			},
		),
		SearchImprovements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "search_improvements_total",
				Help: "Total candidate keys accepted across all searches.",
			},
		),
		SearchFinalDistance: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_final_distance",
				Help:    "L1 distance between the best decryption and the reference model.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 21),
			},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_duration_seconds",
				Help:    "Wall-clock duration of a decrypt request including restarts.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
		),
		ModelCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "model_cache_hits_total",
				Help: "Total number of trained-model cache hits.",
			},
		),
		ModelCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "model_cache_misses_total",
				Help: "Total number of trained-model cache misses.",
			},
		),
		ModelsTrainedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "models_trained_total",
				Help: "Total bigram models trained from a corpus.",
			},
		),
		JobsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decrypt_jobs_processed_total",
				Help: "Decrypt jobs consumed from Kafka by status (ok, error).",
			},
			[]string{"status"},
		),
		ProgressDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "progress_events_dropped_total",
				Help: "Progress events dropped because the publish buffer was full.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchRunsTotal,
		m.SearchIterations,
		m.SearchImprovements,
		m.SearchFinalDistance,
		m.SearchDuration,
		m.ModelCacheHits,
		m.ModelCacheMisses,
		m.ModelsTrainedTotal,
		m.JobsProcessedTotal,
		m.ProgressDropped,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
