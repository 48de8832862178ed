// Package datasource defines the capability shared by every data source and
// decorator in proxydb.
// This package has no project imports -- it is the dependency root.
package datasource

import "context"

// Sentinel is the display string the driver prints for a failed fetch.
// It never travels through the DataSource contract; failures are errors.
const Sentinel = "error"

// DataSource is an expensive key/value lookup. Decorators wrap another
// DataSource and keep the same contract.
type DataSource interface {
	// Fetch returns the value for key. A non-nil error means no value was
	// produced; the returned string is empty in that case.
	Fetch(ctx context.Context, key string) (string, error)
}

// Func adapts an ordinary function to the DataSource interface.
type Func func(ctx context.Context, key string) (string, error)

// Fetch calls f(ctx, key).
func (f Func) Fetch(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

// Display renders a fetch result the way the driver prints it.
func Display(val string, err error) string {
	if err != nil {
		return Sentinel
	}
	return val
}
