// Package config handles YAML configuration loading with environment variable expansion.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"go.yaml.in/yaml/v3"
)

// Source kinds.
const (
	SourceBase   = "base"
	SourceStatic = "static"
)

// Config is the top-level proxydb configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Source    SourceConfig    `yaml:"source"`
	Cache     CacheConfig     `yaml:"cache"`
	Limit     LimitConfig     `yaml:"limit"`
	Driver    DriverConfig    `yaml:"driver"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// SourceConfig selects the leaf data source.
type SourceConfig struct {
	Kind        string `yaml:"kind"`         // base or static
	StaticValue string `yaml:"static_value"` // value returned by the static source
}

// CacheConfig controls the caching decorator.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LimitConfig controls the budget-limiting decorator.
type LimitConfig struct {
	Enabled bool `yaml:"enabled"`
	Shots   int  `yaml:"shots"` // per-key budget, at least 1
}

// DriverConfig is the fixed fetch sequence the driver issues.
type DriverConfig struct {
	Keys        []string `yaml:"keys"`
	Concurrency int      `yaml:"concurrency"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`    // OTLP gRPC endpoint
	SampleRate float64 `yaml:"sample_rate"` // 0.0 to 1.0
}

// SlogLevel parses Level. An empty level is info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// Default returns the built-in configuration: Base source behind a cache
// behind a two-shot limiter, fetching "key" three times.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Source: SourceConfig{
			Kind: SourceBase,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Limit: LimitConfig{
			Enabled: true,
			Shots:   2,
		},
		Driver: DriverConfig{
			Keys:        []string{"key", "key", "key"},
			Concurrency: 1,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: true},
			Tracing: TracingConfig{
				Endpoint:   "localhost:4317",
				SampleRate: 1.0,
			},
		},
	}
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file over the defaults, expanding
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	data = expandEnv(data)

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format %q: must be text or json", c.Log.Format)
	}
	switch c.Source.Kind {
	case SourceBase, SourceStatic:
	default:
		return fmt.Errorf("source kind %q: must be %s or %s", c.Source.Kind, SourceBase, SourceStatic)
	}
	if c.Limit.Enabled && c.Limit.Shots < 1 {
		return fmt.Errorf("limit shots %d: must be at least 1", c.Limit.Shots)
	}
	if c.Driver.Concurrency < 1 {
		return fmt.Errorf("driver concurrency %d: must be at least 1", c.Driver.Concurrency)
	}
	if r := c.Telemetry.Tracing.SampleRate; r < 0 || r > 1 {
		return fmt.Errorf("tracing sample_rate %v: must be between 0 and 1", r)
	}
	if c.Telemetry.Tracing.Enabled && c.Telemetry.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	return nil
}
