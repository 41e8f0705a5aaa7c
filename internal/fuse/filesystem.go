package fuse

import (
	"io"
	"strings"
	"time"

	"github.com/jsonfs/jsonfs/internal/cache"
	"github.com/jsonfs/jsonfs/internal/metrics"
	"github.com/jsonfs/jsonfs/internal/stats"
	"github.com/jsonfs/jsonfs/internal/tree"
	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/types"
	"github.com/jsonfs/jsonfs/pkg/utils"
)

// POSIX file kind bits. Declared locally so the core compiles on every
// platform a bridge targets.
const (
	modeDir     = 0o040000 // S_IFDIR
	modeRegular = 0o100000 // S_IFREG

	// Nominal size reported for every directory.
	dirSize = 4096

	// Block size reported by statfs.
	statfsBlockSize = 4096
)

// Operation names used for metrics labels and read-only rejections.
const (
	opGetattr    = "getattr"
	opReaddir    = "readdir"
	opOpen       = "open"
	opRelease    = "release"
	opRead       = "read"
	opStatfs     = "statfs"
	opAccess     = "access"
	opOpendir    = "opendir"
	opReleasedir = "releasedir"
	opGetxattr   = "getxattr"
	opListxattr  = "listxattr"
	opSetxattr   = "setxattr"
	opReadlink   = "readlink"
	opUtimens    = "utimens"
)

// Options carries everything the operation core needs. Index and Engine
// are required; the rest default to inert implementations.
type Options struct {
	Index    *tree.Index
	Engine   types.ContentEngine
	Governor types.AdmissionController
	Stats    types.StatsRecorder
	Metrics  types.MetricsCollector
	Logger   *utils.Logger

	// Path handling
	Form          utils.NormalizationForm
	IgnorePattern string
	MemoEntries   int

	// Static attribute values reported for every node
	UID      uint32
	GID      uint32
	FileMode uint32
	DirMode  uint32
	Mtime    time.Time
}

// Core is the transport-agnostic operation adapter. Every bridge method
// funnels through it: governor gate, path canonicalization (memoized),
// index lookup, dispatch, stats and metrics update. It is safe for
// concurrent use from any number of kernel dispatch threads.
type Core struct {
	index    *tree.Index
	engine   types.ContentEngine
	governor types.AdmissionController
	stats    types.StatsRecorder
	metrics  types.MetricsCollector
	memo     types.PathCache
	logger   *utils.Logger

	form          utils.NormalizationForm
	ignorePattern string

	uid      uint32
	gid      uint32
	fileMode uint32
	dirMode  uint32
	mtime    time.Time
}

// NewCore builds the operation core from validated options.
func NewCore(opts Options) *Core {
	if opts.Stats == nil {
		opts.Stats = stats.NewCounters()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.Governor == nil {
		opts.Governor = nopGovernor{}
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewLogger(utils.ERROR, io.Discard)
	}
	mtime := opts.Mtime
	if mtime.IsZero() {
		mtime = time.Now()
	}

	return &Core{
		index:         opts.Index,
		engine:        opts.Engine,
		governor:      opts.Governor,
		stats:         opts.Stats,
		metrics:       opts.Metrics,
		memo:          cache.NewLRUCache(opts.MemoEntries),
		logger:        opts.Logger,
		form:          opts.Form,
		ignorePattern: opts.IgnorePattern,
		uid:           opts.UID,
		gid:           opts.GID,
		fileMode:      opts.FileMode,
		dirMode:       opts.DirMode,
		mtime:         mtime,
	}
}

// Totals reports the declared shape of the mounted tree.
func (c *Core) Totals() types.TreeTotals {
	return c.index.Totals()
}

// MemoStats reports path-memo cache counters.
func (c *Core) MemoStats() types.CacheStats {
	return c.memo.Stats()
}

// GetAttr implements the attributes contract: directories report a fixed
// nominal size, files their declared size; ownership and timestamps are
// static instance-wide values.
func (c *Core) GetAttr(raw string) (types.FileAttr, error) {
	c.admit(opGetattr)
	start := time.Now()
	c.stats.Record(0)
	c.logger.Debug("getattr called for path: %s", raw)

	key, node, ok := c.lookup(raw)
	if !ok {
		err := jfserrors.NewNotFound(key)
		c.logMiss("Path not found", raw, key)
		c.finish(opGetattr, start, 0, err)
		return types.FileAttr{}, err
	}

	c.finish(opGetattr, start, 0, nil)
	return c.attrFor(node), nil
}

// ReadDir implements the list contract: "." and ".." first, then children
// in declaration order, never re-sorted.
func (c *Core) ReadDir(raw string) ([]types.DirEntry, error) {
	c.admit(opReaddir)
	start := time.Now()
	c.stats.Record(0)
	c.logger.Debug("readdir called for path: %s", raw)

	key, node, ok := c.lookup(raw)
	if !ok || !node.IsDir() {
		err := jfserrors.NewNotFound(key)
		c.logMiss("Invalid directory path", raw, key)
		c.finish(opReaddir, start, 0, err)
		return nil, err
	}

	entries := make([]types.DirEntry, 0, len(node.Children)+2)
	entries = append(entries,
		types.DirEntry{Name: ".", IsDir: true},
		types.DirEntry{Name: "..", IsDir: true},
	)
	for _, child := range node.Children {
		entries = append(entries, types.DirEntry{Name: child.Name, IsDir: child.IsDir()})
	}

	c.finish(opReaddir, start, 0, nil)
	return entries, nil
}

// Read implements the read contract. The returned length is always
// max(0, min(size, file.size-offset)); reading past EOF shortens the
// result, it never errors.
func (c *Core) Read(raw string, size, offset int64) ([]byte, error) {
	c.admit(opRead)
	start := time.Now()
	c.logger.Debug("read called for path: %s, size: %d, offset: %d", raw, size, offset)

	key, node, ok := c.lookup(raw)
	if !ok || node.IsDir() {
		err := jfserrors.NewNotFound(key)
		c.logMiss("Invalid file path", raw, key)
		c.stats.Record(0)
		c.finish(opRead, start, 0, err)
		return nil, err
	}

	readSize := node.Size - offset
	if readSize > size {
		readSize = size
	}
	if readSize < 0 {
		readSize = 0
	}
	c.stats.Record(readSize)

	data := c.engine.ReadAt(key, offset, readSize)
	c.finish(opRead, start, readSize, nil)
	return data, nil
}

// Open checks existence; handles carry no state.
func (c *Core) Open(raw string) error { return c.exists(opOpen, raw) }

// Release always succeeds.
func (c *Core) Release(raw string) error { return c.succeed(opRelease) }

// Access checks existence.
func (c *Core) Access(raw string) error { return c.exists(opAccess, raw) }

// OpenDir checks existence.
func (c *Core) OpenDir(raw string) error { return c.exists(opOpendir, raw) }

// ReleaseDir always succeeds.
func (c *Core) ReleaseDir(raw string) error { return c.succeed(opReleasedir) }

// StatFS aggregates the tree walk done at construction into block-style
// statistics. It never errors.
func (c *Core) StatFS() types.StatFS {
	c.admit(opStatfs)
	start := time.Now()

	totals := c.index.Totals()
	blocks := (uint64(totals.TotalBytes) + statfsBlockSize - 1) / statfsBlockSize
	files := totals.Files
	if files < 1 {
		files = 1
	}

	c.finish(opStatfs, start, 0, nil)
	return types.StatFS{
		Bsize:   statfsBlockSize,
		Frsize:  statfsBlockSize,
		Blocks:  blocks,
		Files:   files,
		NameMax: 255,
	}
}

// GetXAttr always reports that the attribute does not exist.
func (c *Core) GetXAttr(raw, name string) error {
	c.admit(opGetxattr)
	start := time.Now()
	err := jfserrors.NewNoAttribute(c.canonical(raw), name)
	c.finish(opGetxattr, start, 0, err)
	return err
}

// ListXAttr always returns an empty list.
func (c *Core) ListXAttr(raw string) ([]string, error) {
	c.admit(opListxattr)
	start := time.Now()
	c.finish(opListxattr, start, 0, nil)
	return nil, nil
}

// SetXAttr always rejects: the filesystem is read-only by construction.
func (c *Core) SetXAttr(raw, name string) error {
	return c.Mutate(opSetxattr, raw)
}

// Mutate rejects any mutating operation. op names the rejected call for
// logs and metrics.
func (c *Core) Mutate(op, raw string) error {
	c.admit(op)
	start := time.Now()
	err := jfserrors.NewReadOnly(op, c.canonical(raw))
	c.finish(op, start, 0, err)
	return err
}

// ReadLink always reports NOT_FOUND: the data model has no link type.
func (c *Core) ReadLink(raw string) (string, error) {
	c.admit(opReadlink)
	start := time.Now()
	err := jfserrors.NewNotFound(c.canonical(raw))
	c.finish(opReadlink, start, 0, err)
	return "", err
}

// UTimens succeeds without effect. Tools probe writability this way and
// the mount becomes unusable if it errors.
func (c *Core) UTimens(raw string) error { return c.succeed(opUtimens) }

// Internal plumbing

// admit gates the operation on the governor before any work happens.
func (c *Core) admit(op string) {
	if waited := c.governor.Admit(); waited > 0 {
		c.metrics.RecordThrottle(op, waited)
	}
}

// finish records the operation outcome in metrics.
func (c *Core) finish(op string, start time.Time, size int64, err error) {
	c.metrics.RecordOperation(op, time.Since(start), size, err == nil)
	if err != nil {
		c.metrics.RecordError(op, err)
	}
}

// canonical reduces a request path to its lookup key, memoized.
func (c *Core) canonical(raw string) string {
	if key, ok := c.memo.Get(raw); ok {
		c.metrics.RecordCacheHit(raw, 0)
		return key
	}
	c.metrics.RecordCacheMiss(raw, 0)
	key := utils.CanonicalPath(raw, c.form)
	c.memo.Put(raw, key)
	return key
}

// lookup resolves a raw request path against the index.
func (c *Core) lookup(raw string) (string, *tree.Node, bool) {
	key := c.canonical(raw)
	node, ok := c.index.Lookup(key)
	return key, node, ok
}

// exists implements the existence-only contract shared by open, access,
// and opendir.
func (c *Core) exists(op, raw string) error {
	c.admit(op)
	start := time.Now()

	key, _, ok := c.lookup(raw)
	if !ok {
		err := jfserrors.NewNotFound(key)
		c.logMiss("Path not found", raw, key)
		c.finish(op, start, 0, err)
		return err
	}

	c.finish(op, start, 0, nil)
	return nil
}

// succeed implements the unconditional-success contract shared by
// release, releasedir, listxattr, and utimens.
func (c *Core) succeed(op string) error {
	c.admit(op)
	start := time.Now()
	c.finish(op, start, 0, nil)
	return nil
}

// logMiss logs a failed resolution. Names matching the ignore pattern
// log at debug so platform shadow-file probes do not flood the log; the
// error is raised either way.
func (c *Core) logMiss(message, raw, key string) {
	if c.ignorePattern != "" && strings.HasPrefix(utils.SplitBase(key), c.ignorePattern) {
		c.logger.Debug("%s: %s", message, raw)
		return
	}
	c.logger.Warn("%s: %s", message, raw)
}

// peekAttr resolves attributes without adapter accounting. Bridges use
// it to fill replies for calls already accounted under another name.
func (c *Core) peekAttr(raw string) (types.FileAttr, bool) {
	_, node, ok := c.lookup(raw)
	if !ok {
		return types.FileAttr{}, false
	}
	return c.attrFor(node), true
}

// attrFor builds the reported attributes for a resolved node.
func (c *Core) attrFor(node *tree.Node) types.FileAttr {
	attr := types.FileAttr{
		Nlink: 2,
		UID:   c.uid,
		GID:   c.gid,
		Atime: c.mtime,
		Mtime: c.mtime,
		Ctime: c.mtime,
	}
	if node.IsDir() {
		attr.Mode = modeDir | c.dirMode
		attr.Size = dirSize
	} else {
		attr.Mode = modeRegular | c.fileMode
		attr.Size = node.Size
	}
	return attr
}

// nopGovernor admits everything immediately.
type nopGovernor struct{}

func (nopGovernor) Admit() time.Duration { return 0 }
