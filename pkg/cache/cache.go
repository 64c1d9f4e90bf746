// Package cache implements a hierarchical, path-keyed hash cache with TTL
// expiry, approximate-LRU capacity eviction, and directory-subtree
// invalidation.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/housekeeping"
	"github.com/retrigger-io/retrigger/pkg/logging"
)

// HashCache maps paths to fingerprints with TTL expiry, approximate-LRU
// eviction, and (optionally) a parent-directory index supporting subtree
// invalidation. All operations are safe under concurrent use.
type HashCache struct {
	config Config
	logger *logging.Logger

	// store is a concurrent-safe map substrate, sized generously above
	// config.MaxEntries so its own strict-LRU eviction acts only as a
	// backstop; the spec's sampling-based approximate-LRU eviction in
	// evictLocked is what actually enforces the capacity bound.
	store *lru.Cache[string, *entry]

	// mu guards parentIndex and serializes structural operations (insert,
	// remove, eviction, invalidation, sweep) so that the store and the
	// parent-index never observe each other mid-update.
	mu          sync.Mutex
	parentIndex map[string]map[string]bool
}

// New creates a new HashCache with the given configuration.
func New(config Config, logger *logging.Logger) *HashCache {
	capacity := config.MaxEntries * storeCapacityMultiplier
	if capacity <= 0 {
		capacity = DefaultMaxEntries * storeCapacityMultiplier
	}

	store, _ := lru.New[string, *entry](capacity)

	return &HashCache{
		config:      config,
		logger:      logger,
		store:       store,
		parentIndex: make(map[string]map[string]bool),
	}
}

// GetOrCompute returns the cached fingerprint for path if it's fresh enough
// relative to eventTimestampNanoseconds, or invokes computeFn to produce (and
// cache) a new one. It returns (result, false) if computeFn fails; failures
// are never cached.
func (c *HashCache) GetOrCompute(path string, eventTimestampNanoseconds uint64, computeFn func() (events.HashResult, error)) (events.HashResult, bool) {
	if e, ok := c.store.Get(path); ok {
		now := time.Now()
		eventTime := time.Unix(0, int64(eventTimestampNanoseconds))
		if now.Sub(e.createdAt) <= c.config.TTL && !e.createdAt.Before(eventTime) {
			e.accessCount.Add(1)
			return e.hash, true
		}
	}

	result, err := computeFn()
	if err != nil {
		c.logger.Warnf("unable to compute hash for %s: %v", path, err)
		return events.HashResult{}, false
	}

	c.insert(path, result)
	return result, true
}

// insert stores a freshly computed entry for path and triggers eviction if
// the cache has grown beyond its configured capacity.
func (c *HashCache) insert(path string, hash events.HashResult) {
	e := &entry{
		hash:      hash,
		createdAt: time.Now(),
		depth:     pathDepth(path),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Add(path, e)
	c.indexParentLocked(path)
	c.evictLocked()
}

// indexParentLocked registers path under its parent's bucket, and each
// ancestor directory under its own parent's bucket in turn, stopping as soon
// as an ancestor link already exists (everything above it is already
// linked). This builds parentIndex into a directory trie rooted at "/", so
// that every descendant of a directory — file or subdirectory, at any depth
// — is reachable by walking buckets down from that directory, which is what
// lets InvalidateSubtree remove an entire subtree without scanning the
// store. The caller must hold c.mu.
func (c *HashCache) indexParentLocked(path string) {
	if !c.config.EnableHierarchy {
		return
	}
	child := path
	for {
		parent := parentOf(child)
		if parent == "" {
			return
		}
		bucket := c.parentIndex[parent]
		if bucket == nil {
			bucket = make(map[string]bool)
			c.parentIndex[parent] = bucket
		}
		if bucket[child] {
			return
		}
		bucket[child] = true
		child = parent
	}
}

// unindexParentLocked removes path from its parent's bucket, and climbs to
// the grandparent (and beyond) to drop any ancestor directory bucket left
// empty as a result, stopping as soon as an ancestor bucket still has other
// children. The caller must hold c.mu.
func (c *HashCache) unindexParentLocked(path string) {
	if !c.config.EnableHierarchy {
		return
	}
	child := path
	for {
		parent := parentOf(child)
		if parent == "" {
			return
		}
		bucket, ok := c.parentIndex[parent]
		if !ok {
			return
		}
		delete(bucket, child)
		if len(bucket) > 0 {
			return
		}
		delete(c.parentIndex, parent)
		child = parent
	}
}

// removeLocked removes path from the store and the parent-index. The caller
// must hold c.mu.
func (c *HashCache) removeLocked(path string) {
	c.store.Remove(path)
	c.unindexParentLocked(path)
}

// evictLocked reduces the cache to evictionTargetRatio*MaxEntries using
// approximate LRU: it samples at most 2*(len-target) entries, sorts the
// sample by access count ascending, and removes the lowest len-target of
// them. The caller must hold c.mu.
func (c *HashCache) evictLocked() {
	length := c.store.Len()
	if length <= c.config.MaxEntries {
		return
	}

	target := int(float64(c.config.MaxEntries) * evictionTargetRatio)
	toRemove := length - target
	sampleSize := 2 * toRemove
	if sampleSize > length {
		sampleSize = length
	}

	keys := c.store.Keys()
	if sampleSize < len(keys) {
		keys = keys[:sampleSize]
	}

	sample := make([]snapshot, 0, len(keys))
	for _, key := range keys {
		if e, ok := c.store.Peek(key); ok {
			sample = append(sample, e.snapshot(key))
		}
	}

	sort.Slice(sample, func(i, j int) bool {
		return sample[i].accessCount < sample[j].accessCount
	})

	if toRemove > len(sample) {
		toRemove = len(sample)
	}
	for _, victim := range sample[:toRemove] {
		c.removeLocked(victim.path)
	}
}

// InvalidateSubtree removes every cache entry whose path lies under dir
// (respecting path-component boundaries) and drops dir and its descendant
// directories from the parent-index. It is idempotent and, when hierarchy
// tracking is enabled, O(|subtree|): it walks parentIndex from dir down
// rather than scanning the whole cache. Without hierarchy tracking there is
// no index to walk, so it falls back to a full scan.
func (c *HashCache) InvalidateSubtree(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.config.EnableHierarchy {
		for _, key := range c.store.Keys() {
			if key == dir || isUnderDirectory(key, dir) {
				c.removeLocked(key)
			}
		}
		return
	}

	c.store.Remove(dir)
	c.unindexParentLocked(dir)
	c.invalidateChildrenLocked(dir)
}

// invalidateChildrenLocked removes every descendant of dir recorded in the
// parent-index (files and subdirectories alike, since indexParentLocked
// links both into the trie), recursing into any descendant that is itself
// an indexed parent. The caller must hold c.mu.
func (c *HashCache) invalidateChildrenLocked(dir string) {
	bucket, ok := c.parentIndex[dir]
	if !ok {
		return
	}
	delete(c.parentIndex, dir)

	for child := range bucket {
		c.store.Remove(child)
		c.invalidateChildrenLocked(child)
	}
}

// Sweep removes every entry older than maxAge, cleaning up any parent-index
// buckets left empty as a result.
func (c *HashCache) Sweep(maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, key := range c.store.Keys() {
		e, ok := c.store.Peek(key)
		if !ok {
			continue
		}
		if now.Sub(e.createdAt) > maxAge {
			c.removeLocked(key)
		}
	}
}

// SweepPeriodically runs Sweep immediately and then again at each tick of
// interval, blocking until ctx is cancelled. It's the background-loop
// counterpart to Sweep, in the same spirit as housekeeping.RunPeriodically.
func (c *HashCache) SweepPeriodically(ctx context.Context, interval time.Duration) {
	housekeeping.RunPeriodically(ctx, interval, "cache sweep", func() {
		c.Sweep(c.config.TTL)
	}, c.logger)
}

// Stats summarizes the cache's current state.
type Stats struct {
	Entries     int
	Directories int
	Capacity    int
	Utilization float64
	TTLSeconds  float64
}

// Stats returns a snapshot of the cache's current state.
func (c *HashCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.store.Len()
	utilization := 0.0
	if c.config.MaxEntries > 0 {
		utilization = float64(entries) / float64(c.config.MaxEntries)
	}

	return Stats{
		Entries:     entries,
		Directories: len(c.parentIndex),
		Capacity:    c.config.MaxEntries,
		Utilization: utilization,
		TTLSeconds:  c.config.TTL.Seconds(),
	}
}
