package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/maypok86/otter/v2"
)

// Memory is an unbounded in-memory Store backed by otter. Concurrent loads
// of the same key are deduplicated so load runs once per key.
type Memory struct {
	cache *otter.Cache[string, string]
}

// NewMemory creates an empty in-memory store with no size bound and no expiry.
func NewMemory() (*Memory, error) {
	c, err := otter.New(&otter.Options[string, string]{})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Memory{cache: c}, nil
}

// maxLoadAttempts bounds how often Load retries after a cancellation that
// belonged to another caller.
const maxLoadAttempts = 3

// Load returns the value for key, loading it on first access. The shared
// load runs detached from the first caller's cancellation so that callers
// waiting on the same key are not failed by it.
func (m *Memory) Load(ctx context.Context, key string, load LoadFunc) (string, bool, error) {
	var (
		val    string
		loaded bool
		err    error
	)
	for range maxLoadAttempts {
		val, loaded, err = m.load(ctx, key, load)
		if err == nil || !isCancellation(err) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return "", false, err
	}
	return val, loaded, nil
}

func (m *Memory) load(ctx context.Context, key string, load LoadFunc) (string, bool, error) {
	loaded := false
	val, err := m.cache.Get(ctx, key, otter.LoaderFunc[string, string](func(ctx context.Context, key string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		v, err := load(context.WithoutCancel(ctx), key)
		if err != nil {
			return "", err
		}
		loaded = true
		return v, nil
	}))
	return val, loaded, err
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Get retrieves a stored value if present.
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	return m.cache.GetIfPresent(key)
}

// Len returns otter's estimate of the number of stored entries. It is
// approximate while writes are in flight.
func (m *Memory) Len() int {
	return m.cache.EstimatedSize()
}
