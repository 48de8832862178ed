package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	datasource "github.com/eugener/proxydb/internal"
	"github.com/eugener/proxydb/internal/cache"
	"github.com/eugener/proxydb/internal/config"
	"github.com/eugener/proxydb/internal/ratelimit"
	"github.com/eugener/proxydb/internal/source"
	"github.com/eugener/proxydb/internal/telemetry"
)

// Deps holds optional collaborators for the pipeline. Nil fields disable
// the corresponding layer.
type Deps struct {
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	Tracer  trace.Tracer
}

// Pipeline is the composed chain of decorators. Fetch enters at the
// outermost layer.
type Pipeline struct {
	outer datasource.DataSource

	// Cache and Limit are nil when the layer is disabled.
	Cache *cache.Source
	Limit *ratelimit.Source
}

// NewPipeline builds leaf -> cache -> limit -> metrics -> tracing from cfg,
// skipping disabled layers.
func NewPipeline(cfg *config.Config, deps Deps) (*Pipeline, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	var ds datasource.DataSource
	switch cfg.Source.Kind {
	case config.SourceBase:
		ds = source.NewBase(log)
	case config.SourceStatic:
		ds = source.NewStatic(cfg.Source.StaticValue)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	p := &Pipeline{}

	if cfg.Cache.Enabled {
		c, err := cache.New(ds,
			cache.WithLogger(log),
			cache.WithMetrics(deps.Metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("cache layer: %w", err)
		}
		p.Cache = c
		ds = c
	}

	if cfg.Limit.Enabled {
		l, err := ratelimit.New(ds,
			ratelimit.WithShots(cfg.Limit.Shots),
			ratelimit.WithLogger(log),
			ratelimit.WithMetrics(deps.Metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("limit layer: %w", err)
		}
		p.Limit = l
		ds = l
	}

	ds = telemetry.Instrument(ds, deps.Metrics)
	if deps.Tracer != nil {
		ds = telemetry.Trace(ds, deps.Tracer)
	}

	p.outer = ds
	return p, nil
}

// Fetch runs key through the whole chain.
func (p *Pipeline) Fetch(ctx context.Context, key string) (string, error) {
	return p.outer.Fetch(ctx, key)
}
