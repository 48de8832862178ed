package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	datasource "github.com/eugener/proxydb/internal"
	"github.com/eugener/proxydb/internal/telemetry"
)

// Source forwards at most Shots fetches per key to the wrapped DataSource.
// Further fetches for that key fail with datasource.ErrBudgetExhausted
// without reaching the wrapped source.
type Source struct {
	next    datasource.DataSource
	shots   int
	counter *Counter
	log     *slog.Logger
	metrics *telemetry.Metrics
}

// Option configures a Source.
type Option func(*Source) error

// WithShots sets the per-key budget. n must be at least 1.
func WithShots(n int) Option {
	return func(s *Source) error {
		if n < 1 {
			return fmt.Errorf("shots %d: %w", n, datasource.ErrInvalidBudget)
		}
		s.shots = n
		return nil
	}
}

// WithLogger sets the logger used for rejection traces.
func WithLogger(log *slog.Logger) Option {
	return func(s *Source) error {
		if log != nil {
			s.log = log
		}
		return nil
	}
}

// WithMetrics records rejections in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Source) error {
		s.metrics = m
		return nil
	}
}

// New creates a budget-limiting decorator around next.
func New(next datasource.DataSource, opts ...Option) (*Source, error) {
	if next == nil {
		return nil, datasource.ErrNilSource
	}
	s := &Source{
		next:    next,
		shots:   DefaultShots,
		counter: NewCounter(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Fetch forwards to the wrapped source while key has budget left.
// The shot is spent before forwarding, so a failing wrapped fetch still
// counts against the budget.
func (s *Source) Fetch(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	res := s.counter.Take(key, s.shots)
	if !res.Allowed {
		s.log.WarnContext(ctx, "budget exhausted", "key", key, "shots", s.shots)
		s.metrics.Reject()
		return "", fmt.Errorf("key %q: %w", key, datasource.ErrBudgetExhausted)
	}

	s.log.DebugContext(ctx, "shot taken", "key", key, "remaining", res.Remaining)
	return s.next.Fetch(ctx, key)
}

// Shots returns the configured per-key budget.
func (s *Source) Shots() int {
	return s.shots
}

// Remaining returns how many fetches key may still forward.
func (s *Source) Remaining(key string) int {
	return max(0, s.shots-s.counter.Used(key))
}
