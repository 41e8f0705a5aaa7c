// Package stats accumulates traffic counters and reports them once per
// interval on a background goroutine.
package stats

import (
	"sync"

	"github.com/jsonfs/jsonfs/pkg/types"
)

// Counters accumulates operation and byte counts under one mutex. The
// reporter drains it once per tick; operations add to it concurrently.
type Counters struct {
	mu    sync.Mutex
	ops   uint64
	bytes uint64
}

var _ types.StatsRecorder = (*Counters)(nil)

// NewCounters creates an empty counter set.
func NewCounters() *Counters {
	return &Counters{}
}

// Record notes one completed operation and the bytes it transferred.
// Metadata operations pass zero.
func (c *Counters) Record(bytes int64) {
	c.mu.Lock()
	c.ops++
	if bytes > 0 {
		c.bytes += uint64(bytes)
	}
	c.mu.Unlock()
}

// Snapshot returns the counters accumulated since the last reset,
// clearing them when reset is true.
func (c *Counters) Snapshot(reset bool) types.StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := types.StatsSnapshot{Ops: c.ops, Bytes: c.bytes}
	if reset {
		c.ops = 0
		c.bytes = 0
	}
	return snap
}
