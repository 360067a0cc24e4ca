// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesTotal           *prometheus.CounterVec
	logosFoundTotal      prometheus.Counter
	errorsTotal          *prometheus.CounterVec
	fetchesInFlight      prometheus.Gauge
	fetchDurationSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logoscout_pages_total",
				Help: "Total number of pages processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		logosFoundTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "logoscout_logos_found_total",
				Help: "Total number of pages where a logo candidate was found.",
			},
		)

		errorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logoscout_errors_total",
				Help: "Total number of per-item failures, labeled by kind.",
			},
			[]string{"kind"},
		)

		fetchesInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "logoscout_fetches_in_flight",
				Help: "Number of fetches currently holding a concurrency permit.",
			},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "logoscout_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSuccess increments the page counters for a processed page.
func ObserveSuccess(hasLogo bool, duration time.Duration) {
	pagesTotal.WithLabelValues("success").Inc()
	if hasLogo {
		logosFoundTotal.Inc()
	}
	fetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveError increments the failure counters for the given kind.
func ObserveError(kind string) {
	pagesTotal.WithLabelValues("error").Inc()
	errorsTotal.WithLabelValues(kind).Inc()
}

// IncFetchesInFlight increments the in-flight fetch gauge.
func IncFetchesInFlight() {
	fetchesInFlight.Inc()
}

// DecFetchesInFlight decrements the in-flight fetch gauge.
func DecFetchesInFlight() {
	fetchesInFlight.Dec()
}
