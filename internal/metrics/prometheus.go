// Package metrics exposes Prometheus instrumentation. A nil *Recorder is
// valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache outcomes.
const (
	CacheMiss     = "miss"
	CacheFresh    = "fresh"
	CacheRefetch  = "refetch"
	CacheStale    = "stale"
	CacheFallback = "fallback"
)

// Recorder records cache, fetch, analysis and batch metrics.
type Recorder struct {
	registry      *prometheus.Registry
	cacheOutcomes *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	fetchErrors   *prometheus.CounterVec
	analyses      *prometheus.CounterVec
	batchDuration prometheus.Histogram
	batchFailed   prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cacheOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_cache_requests_total",
				Help: "Timeframe cache reads by outcome",
			},
			[]string{"timeframe", "outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketbrief_fetch_duration_seconds",
				Help:    "Duration of market data fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "timeframe"},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_fetch_errors_total",
				Help: "Total number of failed market data fetches",
			},
			[]string{"provider", "timeframe"},
		),
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_analyses_total",
				Help: "Analysis calls by status",
			},
			[]string{"status"},
		),
		batchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marketbrief_batch_duration_seconds",
				Help:    "Duration of market batch runs in seconds",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
			},
		),
		batchFailed: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketbrief_batch_failed_assets",
				Help: "Failed assets in the last market batch",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// CacheOutcome counts one timeframe cache read.
func (r *Recorder) CacheOutcome(timeframe, outcome string) {
	if r == nil {
		return
	}
	r.cacheOutcomes.WithLabelValues(timeframe, outcome).Inc()
}

// Fetch records one provider fetch.
func (r *Recorder) Fetch(provider, timeframe string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.fetchDuration.WithLabelValues(provider, timeframe).Observe(d.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(provider, timeframe).Inc()
	}
}

// Analysis counts one analysis by status (ok, cached, error).
func (r *Recorder) Analysis(status string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(status).Inc()
}

// Batch records a finished market batch.
func (r *Recorder) Batch(d time.Duration, failed int) {
	if r == nil {
		return
	}
	r.batchDuration.Observe(d.Seconds())
	r.batchFailed.Set(float64(failed))
}
