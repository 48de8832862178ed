package cache

import (
	"context"
	"fmt"
	"log/slog"

	datasource "github.com/eugener/proxydb/internal"
	"github.com/eugener/proxydb/internal/telemetry"
)

// Source memoizes the values of the DataSource it wraps. For a given key the
// wrapped source succeeds at most once over the lifetime of the Source;
// every later Fetch is answered from the store.
type Source struct {
	next    datasource.DataSource
	store   Store
	log     *slog.Logger
	metrics *telemetry.Metrics
}

// Option configures a Source.
type Option func(*Source) error

// WithStore replaces the default Memory store.
func WithStore(store Store) Option {
	return func(s *Source) error {
		if store == nil {
			return fmt.Errorf("store must not be nil")
		}
		s.store = store
		return nil
	}
}

// WithLogger sets the logger used for hit/miss traces.
func WithLogger(log *slog.Logger) Option {
	return func(s *Source) error {
		if log != nil {
			s.log = log
		}
		return nil
	}
}

// WithMetrics records hits and misses in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Source) error {
		s.metrics = m
		return nil
	}
}

// New creates a caching decorator around next.
func New(next datasource.DataSource, opts ...Option) (*Source, error) {
	if next == nil {
		return nil, datasource.ErrNilSource
	}
	s := &Source{
		next: next,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.store == nil {
		mem, err := NewMemory()
		if err != nil {
			return nil, err
		}
		s.store = mem
	}
	return s, nil
}

// Fetch returns the cached value for key, fetching it from the wrapped
// source on first use. Failed fetches are not cached.
func (s *Source) Fetch(ctx context.Context, key string) (string, error) {
	val, loaded, err := s.store.Load(ctx, key, s.load)
	if err != nil {
		return "", err
	}
	if loaded {
		s.log.InfoContext(ctx, "get from real object", "key", key)
		s.metrics.Miss()
	} else {
		s.log.InfoContext(ctx, "get from cache", "key", key)
		s.metrics.Hit()
	}
	return val, nil
}

func (s *Source) load(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.next.Fetch(ctx, key)
}

// Len returns the number of cached keys as reported by the store. For
// Memory this is approximate while writes are in flight.
func (s *Source) Len() int {
	return s.store.Len()
}
