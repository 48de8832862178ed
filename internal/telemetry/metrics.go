// Package telemetry provides observability primitives for the proxydb pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the pipeline.
// A nil *Metrics is valid everywhere it is accepted and records nothing.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	BudgetRejects prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxydb",
			Name:      "fetches_total",
			Help:      "Total number of fetches through the pipeline.",
		}, []string{"result"}),

		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:                       "proxydb",
			Name:                            "fetch_duration_seconds",
			Help:                            "Pipeline fetch duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proxydb",
			Name:      "cache_hits_total",
			Help:      "Total cache hits.",
		}),

		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proxydb",
			Name:      "cache_misses_total",
			Help:      "Total cache misses that reached the wrapped source.",
		}),

		BudgetRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proxydb",
			Name:      "budget_rejects_total",
			Help:      "Total fetches rejected because the key's budget was spent.",
		}),
	}

	reg.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.CacheHits,
		m.CacheMisses,
		m.BudgetRejects,
	)

	return m
}

// Hit records a cache hit.
func (m *Metrics) Hit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// Miss records a cache miss.
func (m *Metrics) Miss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// Reject records a budget rejection.
func (m *Metrics) Reject() {
	if m != nil {
		m.BudgetRejects.Inc()
	}
}
