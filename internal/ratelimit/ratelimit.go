// Package ratelimit implements a per-key shot budget in front of a DataSource.
package ratelimit

import "sync"

// DefaultShots is the per-key budget when none is configured.
const DefaultShots = 1

// Result is the outcome of a budget check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// Counter tracks how many shots each key has used. Counts only grow.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{
		counts: make(map[string]int),
	}
}

// Take consumes one shot for key if fewer than limit have been used.
// A denied Take leaves the count unchanged.
func (c *Counter) Take(key string, limit int) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	used := c.counts[key]
	if used >= limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0}
	}
	used++
	c.counts[key] = used
	return Result{Allowed: true, Limit: limit, Remaining: limit - used}
}

// Used returns the number of shots consumed for key.
func (c *Counter) Used(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// Len returns the number of keys seen.
func (c *Counter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}
