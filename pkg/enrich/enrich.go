// Package enrich implements the pipeline's Enricher: it orchestrates the
// hash cache and hasher to attach a fingerprint to file events and to drive
// directory-delete cache invalidation.
package enrich

import (
	"time"

	"github.com/retrigger-io/retrigger/pkg/cache"
	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/hashing"
	"github.com/retrigger-io/retrigger/pkg/logging"
)

// Enricher attaches fingerprints to RawEvents, consulting (and updating) a
// HashCache and recomputing via a hashing.Engine on cache misses.
type Enricher struct {
	cache  *cache.HashCache
	hasher *hashing.Engine
	logger *logging.Logger
}

// New creates a new Enricher.
func New(cache *cache.HashCache, hasher *hashing.Engine, logger *logging.Logger) *Enricher {
	return &Enricher{
		cache:  cache,
		hasher: hasher,
		logger: logger,
	}
}

// Enrich computes an EnrichedEvent for raw, dispatching on its kind and
// directory flag per the spec:
//   - directory delete: invalidates the cache subtree, hash is nil.
//   - directory (otherwise): hash is nil.
//   - file create/modify: hash is a cache-hit or freshly computed fingerprint.
//   - file delete/move/metadata-change: hash is nil.
func (e *Enricher) Enrich(raw events.RawEvent) events.EnrichedEvent {
	start := time.Now()

	var hash *events.HashResult
	switch {
	case raw.IsDirectory && raw.Kind == events.Deleted:
		e.cache.InvalidateSubtree(raw.Path)
	case raw.IsDirectory:
		// No fingerprint for directories outside of the delete case above.
	case raw.Kind == events.Created || raw.Kind == events.Modified:
		if result, ok := e.cache.GetOrCompute(raw.Path, raw.TimestampNanoseconds, func() (events.HashResult, error) {
			return e.hasher.HashFile(raw.Path)
		}); ok {
			hash = &result
		} else {
			e.logger.Debugf("no fingerprint available for %s", raw.Path)
		}
	}

	return events.EnrichedEvent{
		Raw:                       raw,
		Hash:                      hash,
		ProcessingTimeNanoseconds: uint64(time.Since(start).Nanoseconds()),
	}
}
