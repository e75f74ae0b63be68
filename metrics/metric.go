// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics provides small in-process counters for components
// that want a running count without registering their own Prometheus
// collector, such as the Timing Guard's total-observations tally.
package metrics

import "sync"

// Counter tracks a count.
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
}

// counter implements Counter.
type counter struct {
	mu    sync.RWMutex
	value int64
}

// NewCounter returns a new Counter.
func NewCounter() Counter {
	return &counter{}
}

// Inc increments the counter by 1.
func (c *counter) Inc() {
	c.Add(1)
}

// Add adds delta to the counter.
func (c *counter) Add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += delta
}

// Read returns the current count.
func (c *counter) Read() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}
