/*
Package config provides configuration management for jsonfs with multi-source support.

This package implements a layered configuration system that supports YAML files,
environment variables, and command-line overrides. It provides validation and
type safety for every jsonfs component.

# Configuration Architecture

Multi-source configuration hierarchy with precedence:

	┌─────────────────────────────────────────────┐
	│          Command-Line Flags                 │ ← Highest Priority
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│        Environment Variables                │
	│             (JSONFS_*)                      │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│         Configuration Files                 │
	│            (YAML format)                    │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│           Default Values                    │ ← Lowest Priority
	└─────────────────────────────────────────────┘

# Configuration Structure

Content Settings:
- Synthesis mode (fill or synthetic)
- Fill byte for fill mode
- Block size, pool size, and seed for synthetic mode

Throughput Limits:
- Minimum delay between operations
- Maximum operations per second

Attribute Settings:
- Reported uid/gid (-1 resolves to the mounting process)
- File and directory permission bits

Path Handling:
- Unicode normalization form (none, nfc, nfd, nfkc, nfkd)
- Ignore-prefix pattern for resource-fork noise
- Normalization memo capacity

Reporting:
- Periodic stats line (interval, enable flag)
- Prometheus metrics endpoint (listen address, enable flag)

Mount Options:
- Filesystem name, allow_other, kernel debug
- Attribute and entry cache timeouts

# Usage Examples

Loading configuration:

	// Create with defaults
	cfg := config.NewDefault()

	// Load from file
	if err := cfg.LoadFromFile("/etc/jsonfs/config.yaml"); err != nil {
		log.Fatal(err)
	}

	// Apply environment overrides
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatal(err)
	}

	// Validate the final result
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

Resolving derived values:

	fill := cfg.FillByte()
	blockSize, err := cfg.BlockSizeBytes()
	uid := cfg.ResolveUID()

# Validation

Validate returns a CONFIGURATION_INVALID error naming the offending field for
any out-of-range value: unknown content modes, multi-byte fill characters,
non-positive block or pool sizes, negative throughput limits, unknown
normalization forms, and unknown log levels.
*/
package config
