// Package metrics exposes layout and ingest counters on a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reportlane/reportlane/internal/layout"
)

// Cache lookup outcomes.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

// Metrics holds the server's collectors.
type Metrics struct {
	registry *prometheus.Registry

	layoutDuration   prometheus.Histogram
	layoutIterations *prometheus.HistogramVec
	residualOverlaps prometheus.Counter
	cacheRequests    *prometheus.CounterVec
	reportsIngested  prometheus.Counter
}

// New registers every collector plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reportlane_layout_duration_seconds",
			Help:    "Wall time of a full two-lane layout.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		layoutIterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reportlane_layout_iterations",
			Help:    "Relaxation passes executed per lane.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"lane"}),
		residualOverlaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportlane_layout_residual_overlaps_total",
			Help: "Icon pairs still overlapping after correction.",
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reportlane_layout_cache_requests_total",
			Help: "Layout cache lookups by result.",
		}, []string{"result"}),
		reportsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportlane_reports_ingested_total",
			Help: "Reports accepted into storage.",
		}),
	}
	m.registry.MustRegister(
		m.layoutDuration,
		m.layoutIterations,
		m.residualOverlaps,
		m.cacheRequests,
		m.reportsIngested,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLayout records one computed layout.
func (m *Metrics) ObserveLayout(elapsed time.Duration, stats layout.Stats) {
	m.layoutDuration.Observe(elapsed.Seconds())
	for lane, st := range stats.Lanes {
		m.layoutIterations.WithLabelValues(string(lane)).Observe(float64(st.Iterations))
	}
	if stats.ResidualOverlaps > 0 {
		m.residualOverlaps.Add(float64(stats.ResidualOverlaps))
	}
}

// CacheRequest counts a cache lookup.
func (m *Metrics) CacheRequest(result string) {
	m.cacheRequests.WithLabelValues(result).Inc()
}

// ReportsIngested counts stored reports.
func (m *Metrics) ReportsIngested(n int) {
	m.reportsIngested.Add(float64(n))
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
