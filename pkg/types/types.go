package types

import "time"

// FileAttr represents the POSIX attributes reported for a tree entry.
// Every entry in a mounted layout is immutable, so the three timestamps
// all carry the instant the filesystem instance was created.
type FileAttr struct {
	Mode  uint32    `json:"mode"`
	Nlink uint32    `json:"nlink"`
	Size  int64     `json:"size"`
	UID   uint32    `json:"uid"`
	GID   uint32    `json:"gid"`
	Atime time.Time `json:"atime"`
	Mtime time.Time `json:"mtime"`
	Ctime time.Time `json:"ctime"`
}

// DirEntry is a single name within a directory listing.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// StatFS carries the statvfs-style numbers reported for the whole mount.
type StatFS struct {
	Bsize   uint64 `json:"bsize"`
	Frsize  uint64 `json:"frsize"`
	Blocks  uint64 `json:"blocks"`
	Bfree   uint64 `json:"bfree"`
	Bavail  uint64 `json:"bavail"`
	Files   uint64 `json:"files"`
	Ffree   uint64 `json:"ffree"`
	Favail  uint64 `json:"favail"`
	Flag    uint64 `json:"flag"`
	NameMax uint64 `json:"namemax"`
}

// TreeTotals aggregates the parsed layout: entry counts and the sum of
// all declared file sizes.
type TreeTotals struct {
	Files      uint64 `json:"files"`
	Dirs       uint64 `json:"dirs"`
	TotalBytes int64  `json:"total_bytes"`
}

// CacheStats represents cache performance statistics
type CacheStats struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	Size        int64   `json:"size"`
	Capacity    int64   `json:"capacity"`
	HitRate     float64 `json:"hit_rate"`
	Utilization float64 `json:"utilization"`
}

// StatsSnapshot is one reporting window's worth of traffic counters.
type StatsSnapshot struct {
	Ops   uint64 `json:"ops"`
	Bytes uint64 `json:"bytes"`
}
