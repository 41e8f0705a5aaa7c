/*
Package fuse serves a parsed layout tree as a read-only FUSE filesystem.

The package is split into a transport-independent operation core and two
thin FUSE bridges selected by build tag. The core owns every decision
about what an operation returns; the bridges only translate call shapes
and error codes.

# Architecture Overview

	┌─────────────────────────────────────────────┐
	│              User Applications              │
	│            (ls, cat, find, stat)            │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│              Kernel VFS / FUSE              │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│      FUSE Bridge (one per build tag)        │  ← this package
	│  ┌───────────────┐  ┌────────────────────┐  │
	│  │ go-fuse       │  │ cgofuse            │  │
	│  │ (default)     │  │ (-tags cgofuse)    │  │
	│  └───────────────┘  └────────────────────┘  │
	│                     │                       │
	│  ┌─────────────────────────────────────────┐│
	│  │            Operation Core               ││
	│  │  admit → resolve → dispatch → account   ││
	│  └─────────────────────────────────────────┘│
	└─────────────────────────────────────────────┘
	                      │
	┌──────────────┐ ┌──────────┐ ┌───────────────┐
	│  tree.Index  │ │  engine  │ │ stats/metrics │
	└──────────────┘ └──────────┘ └───────────────┘

# Operation Core

Core implements every filesystem operation against a tree.Index and a
content engine. Each call runs the same pipeline:

 1. Admit through the configured governor (rate and delay limits).
 2. Canonicalize the raw path, memoized through an LRU cache.
 3. Look the path up in the index and dispatch on entry kind.
 4. Account the outcome (traffic counters, Prometheus series).

The filesystem is immutable. Every mutation (write, create, unlink,
chmod, setxattr, ...) fails with a read-only error; lookups of absent
paths fail with not-found; extended attribute reads report that no such
attribute exists. Read returns engine-generated bytes clamped to the
declared file size.

# Bridges

The default build serves through github.com/hanwen/go-fuse/v2: an inode
tree of dirNode/fileNode wrappers whose methods delegate to the core and
map errors to syscall.Errno values. The cgofuse build (-tags cgofuse)
serves through github.com/winfsp/cgofuse instead, whose path-based
FileSystemBase matches the core's shape directly and returns negative
errno integers. CreatePlatformMountManager picks the manager for the
current build so main never mentions either library.

# Mounting

	core := fuse.NewCore(fuse.Options{Index: idx, Engine: eng})
	mgr := fuse.CreatePlatformMountManager(core, "/mnt/tree", cfg.Mount, logger)
	if err := mgr.Mount(ctx); err != nil {
		return err
	}
	defer mgr.Unmount()
	mgr.Wait()

Mounts are always read-only ("-o ro"); the option is hardwired rather
than configurable.
*/
package fuse
