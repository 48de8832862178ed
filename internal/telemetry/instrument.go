package telemetry

import (
	"context"
	"time"

	datasource "github.com/eugener/proxydb/internal"
)

// instrumented records the outcome and latency of every fetch.
type instrumented struct {
	next    datasource.DataSource
	metrics *Metrics
}

// Instrument wraps next so each Fetch is counted and timed in m.
// A nil m returns next unchanged.
func Instrument(next datasource.DataSource, m *Metrics) datasource.DataSource {
	if m == nil {
		return next
	}
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) Fetch(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := i.next.Fetch(ctx, key)
	i.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	i.metrics.FetchesTotal.WithLabelValues(result).Inc()
	return val, err
}
