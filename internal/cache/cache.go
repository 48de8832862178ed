// Package cache provides a memoizing DataSource decorator.
package cache

import "context"

// LoadFunc produces the value for a key that is not yet stored.
type LoadFunc func(ctx context.Context, key string) (string, error)

// Store is the backing map for a caching decorator. Entries are written
// once and never evicted or updated.
type Store interface {
	// Load returns the stored value for key, calling load to produce it if
	// absent. loaded reports whether this call's load produced the value.
	// Errors from load are returned and nothing is stored.
	Load(ctx context.Context, key string, load LoadFunc) (val string, loaded bool, err error)
	// Get returns the stored value without loading.
	Get(ctx context.Context, key string) (string, bool)
	// Len returns the number of stored entries. Implementations may
	// report an estimate while writes are in flight.
	Len() int
}
