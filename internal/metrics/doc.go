/*
Package metrics provides Prometheus-based metrics collection for jsonfs.

# Overview

The metrics package tracks filesystem operations, path-memo performance,
governor throttling, and errors. It serves both real-time Prometheus
metrics and a plain-text per-operation summary for quick inspection.

# Architecture

	┌─────────────┐
	│  Collector  │  ← Main metrics aggregator
	└──────┬──────┘
	       │
	   ┌───┴────────────────────────────────┐
	   │                                    │
	┌──▼───────────┐         ┌──────────────▼─────┐
	│  Prometheus  │         │  HTTP Endpoints     │
	│   Registry   │         │  /metrics           │
	│              │         │  /health            │
	│ - Counters   │         │  /debug/operations  │
	│ - Histograms │         └─────────────────────┘
	│ - Gauges     │
	└──────────────┘

# Core Components

Collector: maintains both Prometheus metrics (for monitoring systems) and
an internal per-operation summary (for the debug endpoint).

	collector, err := metrics.NewCollector("127.0.0.1:9090", logger)
	if err != nil {
		log.Fatal(err)
	}

	if err := collector.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer collector.Stop(ctx)

Nop: the same interface with every method a no-op, used when the metrics
endpoint is disabled so callers never branch on an enabled flag.

# Recording Operations

The filesystem layer records every operation with timing, size, and
success status:

	startTime := time.Now()
	data := engine.ReadAt(path, offset, length)
	collector.RecordOperation("read", time.Since(startTime), int64(len(data)), true)

# Exported Series

	jsonfs_operations_total{operation,status}        operation count
	jsonfs_operation_duration_seconds{operation}     latency histogram
	jsonfs_read_bytes_total                          bytes served by read
	jsonfs_errors_total{operation,code}              failures by error code
	jsonfs_throttled_operations_total{operation}     governor delays
	jsonfs_throttle_wait_seconds_total{operation}    time spent waiting
	jsonfs_path_cache_requests_total{result}         path memo hits/misses
	jsonfs_tree_files                                declared file count
	jsonfs_tree_directories                          declared directory count
	jsonfs_tree_declared_bytes                       declared total size

Error codes come from pkg/errors; foreign errors are labeled INTERNAL.
*/
package metrics
