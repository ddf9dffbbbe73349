package htm

import (
	"container/list"
	"fmt"
	"sync"
)

// ClipCache memoizes recent Clip results by an entry-count LRU policy,
// adapted from pkg/v1's byte-size ChartCache to count-based eviction since
// ObjectSets, unlike parsed charts, are all roughly the same size.
type ClipCache struct {
	maxEntries int
	entries    map[clipKey]*clipCacheEntry
	lru        *list.List
	mu         sync.RWMutex

	hits, misses int
}

type clipKey struct {
	table               *Table
	centerRA, centerDec float64
	fov                 float64
	minDepth, maxDepth  int
}

type clipCacheEntry struct {
	key     clipKey
	set     *ObjectSet
	element *list.Element
	refs    int
}

// NewClipCache creates a cache holding at most maxEntries clipped regions.
func NewClipCache(maxEntries int) *ClipCache {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &ClipCache{
		maxEntries: maxEntries,
		entries:    make(map[clipKey]*clipCacheEntry),
		lru:        list.New(),
	}
}

// Get returns a cached ObjectSet for the given clip parameters, building
// and caching one via t.Clip if it is not already present.
func (c *ClipCache) Get(t *Table, centerRA, centerDec, fov float64, minDepth, maxDepth int) (*ObjectSet, error) {
	key := clipKey{t, centerRA, centerDec, fov, minDepth, maxDepth}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.element)
		e.refs++
		c.hits++
		set := e.set
		c.mu.Unlock()
		return set, nil
	}
	c.misses++
	c.mu.Unlock()

	set, err := t.Clip(centerRA, centerDec, fov, minDepth, maxDepth)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.element)
		e.refs++
		return e.set, nil
	}
	for len(c.entries) >= c.maxEntries && c.lru.Len() > 0 {
		c.evictLRU()
	}
	e := &clipCacheEntry{key: key, set: set, refs: 1}
	e.element = c.lru.PushFront(e)
	c.entries[key] = e

	return set, nil
}

func (c *ClipCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	e := elem.Value.(*clipCacheEntry)
	c.lru.Remove(elem)
	delete(c.entries, e.key)
}

// Clear empties the cache.
func (c *ClipCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[clipKey]*clipCacheEntry)
	c.lru.Init()
}

// ClipCacheStats reports cache effectiveness, in the same plain-stats-
// struct-returned-by-Stats() shape as pkg/v1's CacheStats.
type ClipCacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// Stats returns the cache's current statistics.
func (c *ClipCache) Stats() ClipCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ClipCacheStats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

func (k clipKey) String() string {
	return fmt.Sprintf("table=%s center=(%.6f,%.6f) fov=%.6f depth=[%d,%d]",
		k.table.Name, k.centerRA, k.centerDec, k.fov, k.minDepth, k.maxDepth)
}
