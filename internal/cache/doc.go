/*
Package cache provides the bounded LRU memo table used by path resolution.

Every FUSE operation arrives with a raw path that must be canonicalized
before lookup: Unicode normalization, NUL stripping, and dot-segment
resolution. The result is a pure function of the raw path, so jsonfs
memoizes it here instead of recomputing it for hot paths.

# Placement

	┌─────────────────────────────────────────────┐
	│            FUSE Operation                   │
	│          (raw path from kernel)             │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│            Path Canonicalizer               │
	│      (consults LRUCache before work)        │  ← This Package
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│              Tree Index                     │
	│        (canonical key → node map)           │
	└─────────────────────────────────────────────┘

# Sizing

Capacity counts entries, not bytes. Keys and values are short strings,
so the table stays small even at the default 4096 entries; eviction is
plain LRU since path popularity is strongly skewed toward a working set.

Cache operations:

	memo := cache.NewLRUCache(4096)
	memo.Put("/dir1//a.txt", "dir1/a.txt")

	if canonical, ok := memo.Get("/dir1//a.txt"); ok {
		// reuse canonical without renormalizing
		_ = canonical
	}

	stats := memo.Stats()
	fmt.Printf("Hit rate: %.2f%%\n", stats.HitRate*100)

All methods are safe for concurrent use.
*/
package cache
