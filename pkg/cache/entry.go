package cache

import (
	"sync/atomic"
	"time"

	"github.com/retrigger-io/retrigger/pkg/events"
)

// entry is the internal representation of a cached fingerprint. accessCount
// is accessed atomically since it's incremented by concurrent readers
// without holding the cache's lock.
type entry struct {
	hash        events.HashResult
	createdAt   time.Time
	accessCount atomic.Uint32
	depth       uint16
}

// snapshot returns a point-in-time, non-atomic copy of the entry suitable for
// sorting and inspection.
type snapshot struct {
	path        string
	hash        events.HashResult
	createdAt   time.Time
	accessCount uint32
	depth       uint16
}

func (e *entry) snapshot(path string) snapshot {
	return snapshot{
		path:        path,
		hash:        e.hash,
		createdAt:   e.createdAt,
		accessCount: e.accessCount.Load(),
		depth:       e.depth,
	}
}
