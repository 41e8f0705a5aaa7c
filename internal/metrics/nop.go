package metrics

import (
	"time"

	"github.com/jsonfs/jsonfs/pkg/types"
)

// Nop discards every measurement. It stands in for the collector when
// the metrics endpoint is disabled, keeping the hot path free of
// enabled checks.
type Nop struct{}

var _ types.MetricsCollector = Nop{}

// NewNop returns a collector that does nothing.
func NewNop() Nop { return Nop{} }

func (Nop) RecordOperation(string, time.Duration, int64, bool) {}
func (Nop) RecordCacheHit(string, int64)                       {}
func (Nop) RecordCacheMiss(string, int64)                      {}
func (Nop) RecordError(string, error)                          {}
func (Nop) RecordThrottle(string, time.Duration)               {}
