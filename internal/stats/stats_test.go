package stats

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounters_Record(t *testing.T) {
	c := NewCounters()

	c.Record(0)
	c.Record(10)
	c.Record(20)

	snap := c.Snapshot(false)
	if snap.Ops != 3 {
		t.Errorf("ops = %d, want 3", snap.Ops)
	}
	if snap.Bytes != 30 {
		t.Errorf("bytes = %d, want 30", snap.Bytes)
	}

	// Non-resetting snapshots leave the counters alone
	again := c.Snapshot(false)
	if again.Ops != 3 || again.Bytes != 30 {
		t.Errorf("second snapshot = %+v, want unchanged", again)
	}
}

func TestCounters_SnapshotReset(t *testing.T) {
	c := NewCounters()

	c.Record(4096)
	drained := c.Snapshot(true)
	if drained.Ops != 1 || drained.Bytes != 4096 {
		t.Errorf("drained = %+v, want {1 4096}", drained)
	}

	empty := c.Snapshot(false)
	if empty.Ops != 0 || empty.Bytes != 0 {
		t.Errorf("after reset = %+v, want zeros", empty)
	}
}

func TestCounters_NegativeBytesIgnored(t *testing.T) {
	c := NewCounters()

	c.Record(-5)

	snap := c.Snapshot(false)
	if snap.Ops != 1 {
		t.Errorf("ops = %d, want 1", snap.Ops)
	}
	if snap.Bytes != 0 {
		t.Errorf("bytes = %d, want 0", snap.Bytes)
	}
}

func TestCounters_Concurrent(t *testing.T) {
	c := NewCounters()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(1)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot(false)
	if snap.Ops != 1000 || snap.Bytes != 1000 {
		t.Errorf("snapshot = %+v, want {1000 1000}", snap)
	}
}

func TestReporter_EmitsLine(t *testing.T) {
	c := NewCounters()
	c.Record(4096)
	c.Record(4096)

	var buf bytes.Buffer
	r := NewReporter(c, 50*time.Millisecond, &buf)
	r.Start()
	time.Sleep(80 * time.Millisecond)
	r.Stop()

	out := buf.String()
	if !strings.Contains(out, "IOPS: 2, Data transferred: 8.0 KB/s (8192 B/s)") {
		t.Errorf("unexpected report output: %q", out)
	}
}

func TestReporter_ResetsEachTick(t *testing.T) {
	c := NewCounters()
	c.Record(100)

	var buf bytes.Buffer
	r := NewReporter(c, 30*time.Millisecond, &buf)
	r.Start()
	time.Sleep(110 * time.Millisecond)
	r.Stop()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 report lines, got %d: %q", len(lines), buf.String())
	}

	// Everything after the first drain reports an idle interval
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "IOPS: 0, ") {
			t.Errorf("post-drain line should report zero ops: %q", line)
		}
	}
}

func TestReporter_LineFormat(t *testing.T) {
	c := NewCounters()
	c.Record(123)

	var buf bytes.Buffer
	r := NewReporter(c, 30*time.Millisecond, &buf)
	r.Start()
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	pattern := regexp.MustCompile(`^IOPS: \d+, Data transferred: .+/s \(\d+ B/s\)$`)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !pattern.MatchString(line) {
			t.Errorf("malformed report line: %q", line)
		}
	}
}

func TestReporter_StartStopIdempotent(t *testing.T) {
	c := NewCounters()
	var buf bytes.Buffer
	r := NewReporter(c, 10*time.Millisecond, &buf)

	r.Start()
	r.Start() // second start is a no-op
	r.Stop()
	r.Stop() // second stop is a no-op

	r.Start()
	r.Stop()
}
