// Package testutil provides configurable test fakes for datasource interfaces.
package testutil

import (
	"context"
	"sync"
)

// FakeSource is a configurable datasource.DataSource that counts calls per key.
type FakeSource struct {
	// FetchFn produces the result. When nil, Fetch returns "fake:" + key.
	FetchFn func(ctx context.Context, key string) (string, error)

	mu    sync.Mutex
	calls map[string]int
}

// Fetch records the call and delegates to FetchFn or returns a default value.
func (f *FakeSource) Fetch(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[key]++
	fn := f.FetchFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, key)
	}
	return "fake:" + key, nil
}

// Calls returns how many times Fetch was invoked for key.
func (f *FakeSource) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// TotalCalls returns how many times Fetch was invoked across all keys.
func (f *FakeSource) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// SetFetchFn swaps the behaviour of subsequent calls.
func (f *FakeSource) SetFetchFn(fn func(ctx context.Context, key string) (string, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchFn = fn
}
