// Package app composes data sources into a pipeline and drives fetches through it.
package app

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	datasource "github.com/eugener/proxydb/internal"
)

// Outcome is the result of one driver fetch.
type Outcome struct {
	Key   string
	Value string
	Err   error
}

// String renders the outcome the way the driver prints it.
func (o Outcome) String() string {
	return datasource.Display(o.Value, o.Err)
}

// Driver issues a fixed sequence of fetches against a DataSource.
type Driver struct {
	ds  datasource.DataSource
	log *slog.Logger
}

// NewDriver returns a Driver for ds. A nil logger uses slog.Default().
func NewDriver(ds datasource.DataSource, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{ds: ds, log: log}
}

// Run fetches every key and returns the outcomes in key order. With
// concurrency 1 the fetches run sequentially; otherwise up to concurrency
// fetches run at once. Per-key failures are reported in the outcomes;
// only context cancellation stops the run, in which case Run returns nil
// outcomes and the context error.
func (d *Driver) Run(ctx context.Context, keys []string, concurrency int) ([]Outcome, error) {
	out := make([]Outcome, len(keys))

	if concurrency <= 1 {
		for i, key := range keys {
			if err := d.fetch(ctx, out, i, key); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, key := range keys {
		g.Go(func() error {
			return d.fetch(ctx, out, i, key)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Driver) fetch(ctx context.Context, out []Outcome, i int, key string) error {
	val, err := d.ds.Fetch(ctx, key)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err != nil {
		d.log.DebugContext(ctx, "fetch failed", "key", key, "error", err)
	}
	out[i] = Outcome{Key: key, Value: val, Err: err}
	return nil
}
