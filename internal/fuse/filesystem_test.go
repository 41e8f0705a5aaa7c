package fuse

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonfs/jsonfs/internal/content"
	"github.com/jsonfs/jsonfs/internal/stats"
	"github.com/jsonfs/jsonfs/internal/tree"
	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/utils"
)

const coreLayout = `[
  {
    "type": "directory",
    "name": "/",
    "contents": [
      {"type": "file", "name": "a.txt", "size": 10},
      {"type": "directory", "name": "dir1", "contents": [
        {"type": "file", "name": "b.bin", "size": 100},
        {"type": "file", "name": "c.bin", "size": 200}
      ]},
      {"type": "directory", "name": "empty"},
      {"type": "file", "name": "zero.dat", "size": 0}
    ]
  }
]`

// countingGovernor records every admission and simulates a fixed wait.
type countingGovernor struct {
	mu    sync.Mutex
	calls int
	wait  time.Duration
}

func (g *countingGovernor) Admit() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.wait
}

func (g *countingGovernor) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recordingMetrics captures collector calls for assertion.
type recordingMetrics struct {
	mu        sync.Mutex
	ops       map[string]int
	errors    map[string]int
	throttles map[string]int
	hits      int
	misses    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		ops:       make(map[string]int),
		errors:    make(map[string]int),
		throttles: make(map[string]int),
	}
}

func (m *recordingMetrics) RecordOperation(operation string, duration time.Duration, size int64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[operation]++
}

func (m *recordingMetrics) RecordCacheHit(key string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *recordingMetrics) RecordCacheMiss(key string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func (m *recordingMetrics) RecordError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[operation]++
}

func (m *recordingMetrics) RecordThrottle(operation string, wait time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttles[operation]++
}

var testMtime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestCore(t *testing.T, opts Options) *Core {
	t.Helper()

	if opts.Index == nil {
		root, err := tree.Parse([]byte(coreLayout))
		require.NoError(t, err)
		opts.Index = tree.BuildIndex(root)
	}
	if opts.Engine == nil {
		opts.Engine = content.NewFillEngine('X')
	}
	if opts.Mtime.IsZero() {
		opts.Mtime = testMtime
	}
	opts.UID = 501
	opts.GID = 20
	opts.FileMode = 0444
	opts.DirMode = 0555

	return NewCore(opts)
}

func TestCoreGetAttr(t *testing.T) {
	core := newTestCore(t, Options{})

	t.Run("file reports declared size", func(t *testing.T) {
		attr, err := core.GetAttr("/a.txt")
		require.NoError(t, err)
		assert.Equal(t, uint32(modeRegular|0444), attr.Mode)
		assert.Equal(t, int64(10), attr.Size)
		assert.Equal(t, uint32(2), attr.Nlink)
		assert.Equal(t, uint32(501), attr.UID)
		assert.Equal(t, uint32(20), attr.GID)
		assert.True(t, attr.Mtime.Equal(testMtime))
		assert.True(t, attr.Atime.Equal(testMtime))
		assert.True(t, attr.Ctime.Equal(testMtime))
	})

	t.Run("directory reports nominal size", func(t *testing.T) {
		attr, err := core.GetAttr("/dir1")
		require.NoError(t, err)
		assert.Equal(t, uint32(modeDir|0555), attr.Mode)
		assert.Equal(t, int64(dirSize), attr.Size)
		assert.Equal(t, uint32(2), attr.Nlink)
	})

	t.Run("root resolves", func(t *testing.T) {
		attr, err := core.GetAttr("/")
		require.NoError(t, err)
		assert.Equal(t, uint32(modeDir|0555), attr.Mode)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := core.GetAttr("/missing.txt")
		assert.True(t, jfserrors.IsNotFound(err))
	})

	t.Run("attributes are stable across calls", func(t *testing.T) {
		first, err := core.GetAttr("/a.txt")
		require.NoError(t, err)
		second, err := core.GetAttr("/a.txt")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestCoreReadDir(t *testing.T) {
	core := newTestCore(t, Options{})

	t.Run("dots first then declaration order", func(t *testing.T) {
		entries, err := core.ReadDir("/")
		require.NoError(t, err)

		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		assert.Equal(t, []string{".", "..", "a.txt", "dir1", "empty", "zero.dat"}, names)
		assert.True(t, entries[0].IsDir)
		assert.True(t, entries[3].IsDir)
		assert.False(t, entries[2].IsDir)
	})

	t.Run("subdirectory", func(t *testing.T) {
		entries, err := core.ReadDir("/dir1")
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, "b.bin", entries[2].Name)
		assert.Equal(t, "c.bin", entries[3].Name)
	})

	t.Run("empty directory lists only dots", func(t *testing.T) {
		entries, err := core.ReadDir("/empty")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ".", entries[0].Name)
		assert.Equal(t, "..", entries[1].Name)
	})

	t.Run("file path is not listable", func(t *testing.T) {
		_, err := core.ReadDir("/a.txt")
		assert.True(t, jfserrors.IsNotFound(err))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := core.ReadDir("/nope")
		assert.True(t, jfserrors.IsNotFound(err))
	})
}

func TestCoreRead(t *testing.T) {
	core := newTestCore(t, Options{})

	t.Run("full read returns fill bytes", func(t *testing.T) {
		data, err := core.Read("/a.txt", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{'X'}, 10), data)
	})

	t.Run("offset read", func(t *testing.T) {
		data, err := core.Read("/a.txt", 4, 2)
		require.NoError(t, err)
		assert.Len(t, data, 4)
	})

	t.Run("read is clamped at EOF", func(t *testing.T) {
		data, err := core.Read("/a.txt", 100, 8)
		require.NoError(t, err)
		assert.Len(t, data, 2)
	})

	t.Run("read at EOF is empty not an error", func(t *testing.T) {
		data, err := core.Read("/a.txt", 10, 10)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("read past EOF is empty not an error", func(t *testing.T) {
		data, err := core.Read("/a.txt", 10, 50)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("zero size file", func(t *testing.T) {
		data, err := core.Read("/zero.dat", 4096, 0)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("directory is not readable", func(t *testing.T) {
		_, err := core.Read("/dir1", 10, 0)
		assert.True(t, jfserrors.IsNotFound(err))
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := core.Read("/nope", 10, 0)
		assert.True(t, jfserrors.IsNotFound(err))
	})
}

func TestCoreExistenceOperations(t *testing.T) {
	core := newTestCore(t, Options{})

	t.Run("open checks existence only", func(t *testing.T) {
		assert.NoError(t, core.Open("/a.txt"))
		assert.NoError(t, core.Open("/dir1"))
		assert.True(t, jfserrors.IsNotFound(core.Open("/nope")))
	})

	t.Run("access", func(t *testing.T) {
		assert.NoError(t, core.Access("/dir1/b.bin"))
		assert.True(t, jfserrors.IsNotFound(core.Access("/nope")))
	})

	t.Run("opendir", func(t *testing.T) {
		assert.NoError(t, core.OpenDir("/dir1"))
		assert.True(t, jfserrors.IsNotFound(core.OpenDir("/nope")))
	})

	t.Run("release always succeeds", func(t *testing.T) {
		assert.NoError(t, core.Release("/a.txt"))
		assert.NoError(t, core.Release("/never-opened"))
		assert.NoError(t, core.ReleaseDir("/nope"))
	})
}

func TestCoreStatFS(t *testing.T) {
	t.Run("aggregates declared totals", func(t *testing.T) {
		core := newTestCore(t, Options{})
		s := core.StatFS()

		assert.Equal(t, uint64(statfsBlockSize), s.Bsize)
		assert.Equal(t, uint64(statfsBlockSize), s.Frsize)
		// 310 declared bytes round up to one block.
		assert.Equal(t, uint64(1), s.Blocks)
		assert.Equal(t, uint64(4), s.Files)
		assert.Equal(t, uint64(255), s.NameMax)
		assert.Zero(t, s.Bfree)
		assert.Zero(t, s.Bavail)
	})

	t.Run("empty tree still reports one file slot", func(t *testing.T) {
		root, err := tree.Parse([]byte(`[{"type": "directory", "name": "/"}]`))
		require.NoError(t, err)
		core := newTestCore(t, Options{Index: tree.BuildIndex(root)})

		s := core.StatFS()
		assert.Equal(t, uint64(1), s.Files)
		assert.Zero(t, s.Blocks)
	})
}

func TestCoreXAttr(t *testing.T) {
	core := newTestCore(t, Options{})

	t.Run("get reports no such attribute even for real paths", func(t *testing.T) {
		err := core.GetXAttr("/a.txt", "user.anything")
		assert.True(t, jfserrors.IsNoAttribute(err))

		err = core.GetXAttr("/missing", "user.anything")
		assert.True(t, jfserrors.IsNoAttribute(err))
	})

	t.Run("list is empty", func(t *testing.T) {
		names, err := core.ListXAttr("/a.txt")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("set is rejected", func(t *testing.T) {
		err := core.SetXAttr("/a.txt", "user.anything")
		assert.True(t, jfserrors.IsReadOnly(err))
	})
}

func TestCoreMutationsRejected(t *testing.T) {
	core := newTestCore(t, Options{})

	ops := []string{"mkdir", "create", "unlink", "rmdir", "rename", "chmod", "chown", "truncate", "write", "link", "symlink", "mknod"}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			err := core.Mutate(op, "/a.txt")
			assert.True(t, jfserrors.IsReadOnly(err))

			// Rejection does not depend on the target existing.
			err = core.Mutate(op, "/no/such/path")
			assert.True(t, jfserrors.IsReadOnly(err))
		})
	}
}

func TestCoreReadLink(t *testing.T) {
	core := newTestCore(t, Options{})

	// No link type exists, so every readlink misses.
	_, err := core.ReadLink("/a.txt")
	assert.True(t, jfserrors.IsNotFound(err))

	_, err = core.ReadLink("/nope")
	assert.True(t, jfserrors.IsNotFound(err))
}

func TestCoreUTimens(t *testing.T) {
	core := newTestCore(t, Options{})
	assert.NoError(t, core.UTimens("/a.txt"))
	assert.NoError(t, core.UTimens("/nope"))
}

func TestCorePathResolution(t *testing.T) {
	core := newTestCore(t, Options{})

	t.Run("separator and dot noise collapses", func(t *testing.T) {
		for _, raw := range []string{"/a.txt", "a.txt", "//a.txt", "/./a.txt", "/dir1/../a.txt"} {
			attr, err := core.GetAttr(raw)
			require.NoError(t, err, "path %q", raw)
			assert.Equal(t, int64(10), attr.Size, "path %q", raw)
		}
	})

	t.Run("traversal cannot escape the root", func(t *testing.T) {
		attr, err := core.GetAttr("/../../a.txt")
		require.NoError(t, err)
		assert.Equal(t, int64(10), attr.Size)
	})

	t.Run("embedded NUL bytes are stripped", func(t *testing.T) {
		_, err := core.GetAttr("/a\x00.txt")
		assert.NoError(t, err)
	})
}

func TestCoreStatsCountAttempts(t *testing.T) {
	counters := stats.NewCounters()
	core := newTestCore(t, Options{Stats: counters})

	t.Run("getattr counts even when the path is missing", func(t *testing.T) {
		_, _ = core.GetAttr("/missing")
		snap := counters.Snapshot(true)
		assert.Equal(t, uint64(1), snap.Ops)
		assert.Zero(t, snap.Bytes)
	})

	t.Run("read counts bytes actually returned", func(t *testing.T) {
		_, err := core.Read("/a.txt", 10, 0)
		require.NoError(t, err)
		snap := counters.Snapshot(true)
		assert.Equal(t, uint64(1), snap.Ops)
		assert.Equal(t, uint64(10), snap.Bytes)
	})

	t.Run("failed read counts the attempt with zero bytes", func(t *testing.T) {
		_, _ = core.Read("/missing", 10, 0)
		snap := counters.Snapshot(true)
		assert.Equal(t, uint64(1), snap.Ops)
		assert.Zero(t, snap.Bytes)
	})

	t.Run("clamped read counts the clamped length", func(t *testing.T) {
		_, err := core.Read("/a.txt", 100, 8)
		require.NoError(t, err)
		snap := counters.Snapshot(true)
		assert.Equal(t, uint64(2), snap.Bytes)
	})

	t.Run("readdir counts", func(t *testing.T) {
		_, err := core.ReadDir("/dir1")
		require.NoError(t, err)
		snap := counters.Snapshot(true)
		assert.Equal(t, uint64(1), snap.Ops)
	})

	t.Run("other operations do not count", func(t *testing.T) {
		_ = core.Open("/a.txt")
		_ = core.Access("/a.txt")
		_ = core.OpenDir("/dir1")
		_ = core.Release("/a.txt")
		_ = core.StatFS()
		_ = core.GetXAttr("/a.txt", "user.x")
		_, _ = core.ListXAttr("/a.txt")
		_ = core.Mutate("unlink", "/a.txt")
		_, _ = core.ReadLink("/a.txt")
		_ = core.UTimens("/a.txt")

		snap := counters.Snapshot(true)
		assert.Zero(t, snap.Ops)
	})
}

func TestCoreGovernorGatesEveryOperation(t *testing.T) {
	gov := &countingGovernor{}
	core := newTestCore(t, Options{Governor: gov})

	_, _ = core.GetAttr("/a.txt")
	_, _ = core.ReadDir("/dir1")
	_, _ = core.Read("/a.txt", 10, 0)
	_ = core.Open("/a.txt")
	_ = core.Release("/a.txt")
	_ = core.Access("/a.txt")
	_ = core.OpenDir("/dir1")
	_ = core.ReleaseDir("/dir1")
	_ = core.StatFS()
	_ = core.GetXAttr("/a.txt", "user.x")
	_, _ = core.ListXAttr("/a.txt")
	_ = core.SetXAttr("/a.txt", "user.x")
	_ = core.Mutate("unlink", "/a.txt")
	_, _ = core.ReadLink("/a.txt")
	_ = core.UTimens("/a.txt")

	assert.Equal(t, 15, gov.count())
}

func TestCoreMetricsWiring(t *testing.T) {
	t.Run("operations and errors are recorded", func(t *testing.T) {
		m := newRecordingMetrics()
		core := newTestCore(t, Options{Metrics: m})

		_, err := core.Read("/a.txt", 10, 0)
		require.NoError(t, err)
		_, _ = core.GetAttr("/missing")

		assert.Equal(t, 1, m.ops["read"])
		assert.Equal(t, 1, m.ops["getattr"])
		assert.Equal(t, 1, m.errors["getattr"])
		assert.Zero(t, m.errors["read"])
	})

	t.Run("throttle waits are recorded", func(t *testing.T) {
		m := newRecordingMetrics()
		gov := &countingGovernor{wait: time.Millisecond}
		core := newTestCore(t, Options{Metrics: m, Governor: gov})

		_, _ = core.GetAttr("/a.txt")
		assert.Equal(t, 1, m.throttles["getattr"])
	})

	t.Run("path memo hits and misses are recorded", func(t *testing.T) {
		m := newRecordingMetrics()
		core := newTestCore(t, Options{Metrics: m})

		_, _ = core.GetAttr("/a.txt")
		_, _ = core.GetAttr("/a.txt")

		assert.Equal(t, 1, m.misses)
		assert.Equal(t, 1, m.hits)
	})
}

func TestCorePathMemoization(t *testing.T) {
	core := newTestCore(t, Options{MemoEntries: 16})

	for i := 0; i < 5; i++ {
		_, err := core.GetAttr("/dir1/b.bin")
		require.NoError(t, err)
	}

	cs := core.MemoStats()
	assert.Equal(t, uint64(4), cs.Hits)
	assert.Equal(t, uint64(1), cs.Misses)
}

func TestCoreIgnorePatternQuietsLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLogger(utils.WARN, &buf)
	core := newTestCore(t, Options{Logger: logger, IgnorePattern: "._"})

	t.Run("matching names log at debug only", func(t *testing.T) {
		buf.Reset()
		_, err := core.GetAttr("/._shadow")
		assert.True(t, jfserrors.IsNotFound(err))
		assert.Empty(t, buf.String())
	})

	t.Run("matching names anywhere in the tree", func(t *testing.T) {
		buf.Reset()
		_, err := core.GetAttr("/dir1/._probe")
		assert.True(t, jfserrors.IsNotFound(err))
		assert.Empty(t, buf.String())
	})

	t.Run("other misses warn", func(t *testing.T) {
		buf.Reset()
		_, _ = core.GetAttr("/missing.txt")
		assert.True(t, strings.Contains(buf.String(), "Path not found: /missing.txt"))
	})
}

func TestCoreDefaults(t *testing.T) {
	root, err := tree.Parse([]byte(coreLayout))
	require.NoError(t, err)

	core := NewCore(Options{
		Index:  tree.BuildIndex(root),
		Engine: content.NewFillEngine(0),
	})

	attr, err := core.GetAttr("/a.txt")
	require.NoError(t, err)
	assert.False(t, attr.Mtime.IsZero())

	totals := core.Totals()
	assert.Equal(t, uint64(4), totals.Files)
	assert.Equal(t, uint64(3), totals.Dirs)
	assert.Equal(t, int64(310), totals.TotalBytes)
}

func TestCoreTotals(t *testing.T) {
	core := newTestCore(t, Options{})
	totals := core.Totals()
	assert.Equal(t, int64(310), totals.TotalBytes)
}
