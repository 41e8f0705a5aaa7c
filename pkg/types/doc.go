/*
Package types provides the core interfaces and data structures shared across jsonfs.

This package defines the contracts between components and the plain data
carriers used throughout the codebase.

# Architecture Overview

jsonfs follows a layered architecture with well-defined interfaces between
components:

	┌─────────────────────────────────────────────┐
	│              FUSE Interface                 │
	│          (cmd/jsonfs, internal/fuse)        │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│            Core Adapter Layer               │
	│           (internal/fuse core)              │
	└─────────────────────────────────────────────┘
	      │          │          │          │
	┌─────┴───┐ ┌────┴────┐ ┌───┴────┐ ┌───┴─────┐
	│  Tree   │ │ Content │ │Governor│ │ Stats / │
	│  Index  │ │ Engine  │ │        │ │ Metrics │
	└─────────┘ └─────────┘ └────────┘ └─────────┘

# Core Interfaces

ContentEngine:
Abstracts how file bytes are produced. The fill engine repeats a single
byte; the synthetic engine selects from a pre-generated pool of random
blocks. Both derive data on demand so no file content is ever stored.

AdmissionController:
Gates every filesystem operation for throughput control, combining a
minimum inter-operation delay with a per-second operation ceiling.

StatsRecorder:
Accumulates operation and byte counters that a periodic reporter drains
once per second.

MetricsCollector:
Enables monitoring and observability with operation tracking, cache
metrics, and error reporting for Prometheus integration.

# Interface Contracts

All interfaces in this package follow these principles:

 1. Error Handling: operations return explicit errors following Go conventions
 2. Determinism: content production is a pure function of its arguments
 3. Thread Safety: implementations must tolerate concurrent callers
 4. Statistics: components expose counters where monitoring needs them

This package serves as the contract definition for all jsonfs components.
*/
package types
