// Package metrics provides Prometheus metrics for the optimizer service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels an optimization result.
const (
	OutcomeOptimal    = "optimal"
	OutcomeInfeasible = "infeasible"
	OutcomeEmpty      = "empty"
)

const unmatchedPath = "unmatched"

// Metrics holds the service collectors. Each instance registers against its
// own registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestDuration tracks HTTP request duration by method, route and status code.
	HTTPRequestDuration *prometheus.HistogramVec
	// HTTPRequestTotal tracks total HTTP requests by method, route and status code.
	HTTPRequestTotal *prometheus.CounterVec
	// OptimizationsTotal counts optimizations by strategy and outcome.
	OptimizationsTotal *prometheus.CounterVec
	// OptimizationDuration tracks optimization wall time by strategy.
	OptimizationDuration *prometheus.HistogramVec
	// BoxesPerOrder tracks the number of boxes in optimal solutions.
	BoxesPerOrder prometheus.Histogram
	// CatalogReplacementsTotal counts catalog replacements by supplier.
	CatalogReplacementsTotal *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		OptimizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxkit_optimizations_total",
				Help: "Total number of box optimizations",
			},
			[]string{"strategy", "outcome"},
		),
		OptimizationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boxkit_optimization_duration_seconds",
				Help:    "Box optimization duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"strategy"},
		),
		BoxesPerOrder: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "boxkit_boxes_per_order",
				Help:    "Number of boxes in the optimal solution",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
		),
		CatalogReplacementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxkit_catalog_replacements_total",
				Help: "Total number of supplier catalog replacements",
			},
			[]string{"supplier"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOptimization records one optimization. boxes is ignored unless the
// outcome is OutcomeOptimal.
func (m *Metrics) RecordOptimization(strategy, outcome string, boxes int, duration time.Duration) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.OptimizationsTotal.WithLabelValues(strategy, outcome).Inc()
	m.OptimizationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if outcome == OutcomeOptimal {
		m.BoxesPerOrder.Observe(float64(boxes))
	}
}

// RecordCatalogReplacement counts a catalog update for a supplier.
func (m *Metrics) RecordCatalogReplacement(supplier string) {
	if m == nil {
		return
	}
	m.CatalogReplacementsTotal.WithLabelValues(supplier).Inc()
}

// Middleware collects HTTP metrics labelled by the matched route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = unmatchedPath
		}
		status := strconv.Itoa(rec.status)
		m.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.HTTPRequestTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
