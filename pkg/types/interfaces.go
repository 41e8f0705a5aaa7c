package types

import "time"

// ContentEngine produces the bytes returned by read operations. The
// filesystem never stores file data; engines derive it on demand.
type ContentEngine interface {
	// ReadAt returns the content of the file identified by path for the
	// range [offset, offset+length), already clamped against fileSize by
	// the caller. Implementations must be safe for concurrent use and
	// must return identical bytes for identical arguments.
	ReadAt(path string, offset, length int64) []byte
}

// AdmissionController gates operation dispatch for throughput control.
type AdmissionController interface {
	// Admit blocks the caller until the operation may proceed. It returns
	// the time spent waiting, which may be zero.
	Admit() time.Duration
}

// StatsRecorder accumulates traffic counters for periodic reporting.
type StatsRecorder interface {
	// Record notes one completed operation that transferred the given
	// number of bytes (zero for metadata operations).
	Record(bytes int64)
	// Snapshot returns the counters accumulated since the last reset,
	// clearing them when reset is true.
	Snapshot(reset bool) StatsSnapshot
}

// PathCache memoizes expensive per-path computations.
type PathCache interface {
	Get(key string) (string, bool)
	Put(key, value string)
	Len() int
	Stats() CacheStats
}

// MetricsCollector defines the metrics collection interface
type MetricsCollector interface {
	RecordOperation(operation string, duration time.Duration, size int64, success bool)
	RecordCacheHit(key string, size int64)
	RecordCacheMiss(key string, size int64)
	RecordError(operation string, err error)
	RecordThrottle(operation string, wait time.Duration)
}
