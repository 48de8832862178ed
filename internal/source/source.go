// Package source provides the leaf data sources that decorators wrap.
package source

import (
	"context"
	"log/slog"
)

// BasePrefix is prepended to every key by Base.
const BasePrefix = "Very Big Data String: "

// DefaultStaticValue is the value a Static source returns when none is given.
const DefaultStaticValue = "test_data"

// Base stands in for an expensive backing store. It synthesizes a
// deterministic value from the key and never fails.
type Base struct {
	log *slog.Logger
}

// NewBase creates a Base source. A nil logger uses slog.Default().
func NewBase(log *slog.Logger) *Base {
	if log == nil {
		log = slog.Default()
	}
	return &Base{log: log}
}

// Fetch returns BasePrefix + key.
func (b *Base) Fetch(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.log.DebugContext(ctx, "base fetch", "key", key)
	return BasePrefix + key, nil
}

// Static returns the same value for every key. Useful as a stand-in for
// Base in tests and demos.
type Static struct {
	value string
}

// NewStatic creates a Static source. An empty value uses DefaultStaticValue.
func NewStatic(value string) *Static {
	if value == "" {
		value = DefaultStaticValue
	}
	return &Static{value: value}
}

// Fetch returns the configured value regardless of key.
func (s *Static) Fetch(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.value, nil
}
