package stats

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jsonfs/jsonfs/pkg/utils"
)

// Reporter drains the counters once per interval and writes one line per
// tick to its sink:
//
//	IOPS: 128, Data transferred: 8.0 MB/s (8388608 B/s)
//
// Counters reset on every tick, so each line covers exactly one interval.
type Reporter struct {
	counters *Counters
	interval time.Duration
	sink     io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReporter creates a reporter draining counters into sink. Non-positive
// intervals fall back to one second.
func NewReporter(counters *Counters, interval time.Duration, sink io.Writer) *Reporter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Reporter{counters: counters, interval: interval, sink: sink}
}

// Start launches the reporting goroutine. Starting a running reporter is
// a no-op.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
}

// Stop halts reporting and waits for the goroutine to exit. Stopping a
// stopped reporter is a no-op.
func (r *Reporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Reporter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.emit()
		}
	}
}

func (r *Reporter) emit() {
	snap := r.counters.Snapshot(true)
	fmt.Fprintf(r.sink, "IOPS: %d, Data transferred: %s/s (%d B/s)\n",
		snap.Ops, utils.FormatBytes(int64(snap.Bytes)), snap.Bytes)
}
