package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eugener/proxydb/internal/app"
	"github.com/eugener/proxydb/internal/config"
	"github.com/eugener/proxydb/internal/telemetry"
)

func run(ctx context.Context, configPath string, stdout, stderr io.Writer) error {
	// Load config
	cfg, found, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	log = log.With("run_id", uuid.Must(uuid.NewV7()).String())
	slog.SetDefault(log)

	if !found {
		log.Warn("config file not found, using defaults", "path", configPath)
	}

	log.Info("starting proxydb",
		"version", version,
		"source", cfg.Source.Kind,
		"cache", cfg.Cache.Enabled,
		"limit", cfg.Limit.Enabled,
		"shots", cfg.Limit.Shots,
	)

	deps := app.Deps{Logger: log}

	// Telemetry
	if cfg.Telemetry.Metrics.Enabled {
		deps.Metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}
	if tc := cfg.Telemetry.Tracing; tc.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx, tc.Endpoint, tc.SampleRate)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				log.Error("tracing shutdown", "error", err)
			}
		}()
		deps.Tracer = telemetry.Tracer("proxydb")
	}

	// Wire pipeline
	p, err := app.NewPipeline(cfg, deps)
	if err != nil {
		return err
	}

	out, err := app.NewDriver(p, log).Run(ctx, cfg.Driver.Keys, cfg.Driver.Concurrency)
	if err != nil {
		return err
	}
	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
		if _, err := fmt.Fprintln(stdout, o); err != nil {
			return err
		}
	}

	attrs := []any{"fetches", len(out), "failed", failed}
	if p.Cache != nil {
		attrs = append(attrs, "cached_keys", p.Cache.Len())
	}
	log.Info("proxydb finished", attrs...)
	return nil
}

// loadConfig reads path. A missing file yields the defaults with found
// set to false; an empty path yields the defaults silently.
func loadConfig(path string) (cfg *config.Config, found bool, err error) {
	if path == "" {
		return config.Default(), true, nil
	}
	cfg, err = config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func newLogger(lc config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
