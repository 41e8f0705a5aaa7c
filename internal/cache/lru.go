package cache

import (
	"container/list"
	"sync"

	"github.com/jsonfs/jsonfs/pkg/types"
)

// DefaultCapacity bounds the memo table when no explicit size is configured.
const DefaultCapacity = 4096

// LRUCache is a thread-safe fixed-capacity LRU map from string keys to
// string values. jsonfs uses it to memoize canonical path resolution, so
// capacity counts entries rather than bytes: keys and values are short
// and the win is skipping repeated Unicode normalization.
type LRUCache struct {
	mu        sync.Mutex
	capacity  int
	items     map[string]*list.Element
	evictList *list.List

	// Statistics
	stats types.CacheStats
}

// cacheEntry represents the value stored in the list element
type cacheEntry struct {
	key   string
	value string
}

// NewLRUCache creates an LRU cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultCapacity.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRUCache{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		stats: types.CacheStats{
			Capacity: int64(capacity),
		},
	}
}

// Get retrieves the value stored under key, marking it most recently used.
func (c *LRUCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		c.stats.Misses++
		c.updateHitRate()
		return "", false
	}

	c.evictList.MoveToFront(element)
	c.stats.Hits++
	c.updateHitRate()
	return element.Value.(*cacheEntry).value, true
}

// Put stores value under key, evicting the least recently used entry
// when the cache is full.
func (c *LRUCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.items[key]; exists {
		element.Value.(*cacheEntry).value = value
		c.evictList.MoveToFront(element)
		return
	}

	element := c.evictList.PushFront(&cacheEntry{key: key, value: value})
	c.items[key] = element

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Len returns the number of entries currently cached.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns cache statistics
func (c *LRUCache) Stats() types.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = int64(len(c.items))
	stats.Utilization = float64(len(c.items)) / float64(c.capacity)
	return stats
}

// Clear clears all items from the cache
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// Helper methods

func (c *LRUCache) evictOldest() {
	element := c.evictList.Back()
	if element == nil {
		return
	}

	entry := element.Value.(*cacheEntry)
	c.evictList.Remove(element)
	delete(c.items, entry.key)
	c.stats.Evictions++
}

func (c *LRUCache) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
}
