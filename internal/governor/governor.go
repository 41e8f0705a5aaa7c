// Package governor enforces the configured throughput ceilings. A single
// Governor instance gates every filesystem operation before any other work
// happens.
package governor

import (
	"sync"
	"time"

	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/types"
)

// Governor applies two optional limits on admission: a maximum operation
// count per fixed one-second window and a minimum wall-clock interval
// between operation starts. Both are instance-wide, and both sleep while
// the governor's one lock is held: concurrent callers serialize through
// throttling so the observed ceiling is a true aggregate, not per-caller.
// Admission never fails, it only delays.
type Governor struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxOps   int

	lastOp      time.Time
	windowStart time.Time
	windowOps   int
}

var _ types.AdmissionController = (*Governor)(nil)

// New creates a governor. A zero value disables the corresponding limit;
// with both limits zero, Admit returns immediately.
func New(minDelay time.Duration, maxOpsPerSec int) (*Governor, error) {
	if minDelay < 0 {
		return nil, jfserrors.NewInvalidConfigf("minimum operation delay must not be negative, got %v", minDelay)
	}
	if maxOpsPerSec < 0 {
		return nil, jfserrors.NewInvalidConfigf("operations per second limit must not be negative, got %d", maxOpsPerSec)
	}
	return &Governor{minDelay: minDelay, maxOps: maxOpsPerSec}, nil
}

// Admit blocks until the calling operation may proceed and returns the
// time spent waiting.
func (g *Governor) Admit() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	var waited time.Duration

	if g.maxOps > 0 {
		now := time.Now()
		if now.Sub(g.windowStart) >= time.Second {
			g.windowStart = now
			g.windowOps = 0
		}
		if g.windowOps >= g.maxOps {
			// Sleep to the window boundary; the admitted call opens
			// the next window.
			sleep := time.Second - now.Sub(g.windowStart)
			if sleep > 0 {
				time.Sleep(sleep)
				waited += sleep
			}
			g.windowStart = time.Now()
			g.windowOps = 0
		}
		g.windowOps++
	}

	if g.minDelay > 0 {
		now := time.Now()
		if !g.lastOp.IsZero() {
			if elapsed := now.Sub(g.lastOp); elapsed < g.minDelay {
				sleep := g.minDelay - elapsed
				time.Sleep(sleep)
				waited += sleep
			}
		}
		g.lastOp = time.Now()
	}

	return waited
}
