package pipeline

import (
	"sync/atomic"

	"github.com/retrigger-io/retrigger/pkg/events"
)

// sizeBucketBounds define the upper (exclusive) bound in bytes of each size
// histogram bucket but the last, which catches everything at or above the
// final bound.
var sizeBucketBounds = [4]uint64{4 << 10, 64 << 10, 1 << 20, 16 << 20}

const sizeBucketCount = len(sizeBucketBounds) + 1

// kindCount is the number of distinct event kinds (events.Created through
// events.MetadataChanged), used to size the per-kind counter array.
const kindCount = 5

type sizeHistogram struct {
	buckets [sizeBucketCount]atomic.Uint64
}

func (h *sizeHistogram) observe(size uint64) {
	for i, bound := range sizeBucketBounds {
		if size < bound {
			h.buckets[i].Add(1)
			return
		}
	}
	h.buckets[sizeBucketCount-1].Add(1)
}

func (h *sizeHistogram) snapshot() [sizeBucketCount]uint64 {
	var out [sizeBucketCount]uint64
	for i := range h.buckets {
		out[i] = h.buckets[i].Load()
	}
	return out
}

// Metrics accumulates pipeline-wide counters. Its fields are written only
// from the Pipeline's own event-loop goroutine but read concurrently via
// Snapshot, so every field is a sync/atomic type.
type Metrics struct {
	eventsReceived                atomic.Uint64
	eventsFiltered                atomic.Uint64
	batchesFlushed                atomic.Uint64
	eventsDropped                 atomic.Uint64
	totalBatchDurationNanos       atomic.Uint64
	totalProcessingDurationNanos  atomic.Uint64
	kindCounters                  [kindCount]atomic.Uint64
	sizeHistogram                 sizeHistogram
	hashHits                      atomic.Uint64
	hashIncremental               atomic.Uint64
}

func (m *Metrics) recordReceived() {
	m.eventsReceived.Add(1)
}

func (m *Metrics) recordFiltered() {
	m.eventsFiltered.Add(1)
}

func (m *Metrics) recordKind(kind events.Kind) {
	if int(kind) < len(m.kindCounters) {
		m.kindCounters[kind].Add(1)
	}
}

func (m *Metrics) recordSize(size uint64) {
	m.sizeHistogram.observe(size)
}

func (m *Metrics) recordHash(hash *events.HashResult) {
	if hash == nil {
		return
	}
	m.hashHits.Add(1)
	if hash.IsIncremental {
		m.hashIncremental.Add(1)
	}
}

func (m *Metrics) recordBatch(durationNanos uint64, dropped int) {
	m.batchesFlushed.Add(1)
	m.totalBatchDurationNanos.Add(durationNanos)
	m.eventsDropped.Add(uint64(dropped))
}

func (m *Metrics) recordProcessing(durationNanos uint64) {
	m.totalProcessingDurationNanos.Add(durationNanos)
}

// Snapshot is a point-in-time copy of a Metrics instance's counters.
type Snapshot struct {
	EventsReceived                     uint64
	EventsFiltered                     uint64
	BatchesFlushed                     uint64
	EventsDropped                      uint64
	TotalBatchDurationNanoseconds      uint64
	TotalProcessingDurationNanoseconds uint64
	KindCounters                       [kindCount]uint64
	SizeHistogram                      [sizeBucketCount]uint64
	HashHits                           uint64
	HashIncremental                    uint64
}

// Snapshot returns a point-in-time copy of m's counters.
func (m *Metrics) Snapshot() Snapshot {
	var kinds [kindCount]uint64
	for i := range m.kindCounters {
		kinds[i] = m.kindCounters[i].Load()
	}

	return Snapshot{
		EventsReceived:                     m.eventsReceived.Load(),
		EventsFiltered:                     m.eventsFiltered.Load(),
		BatchesFlushed:                     m.batchesFlushed.Load(),
		EventsDropped:                      m.eventsDropped.Load(),
		TotalBatchDurationNanoseconds:      m.totalBatchDurationNanos.Load(),
		TotalProcessingDurationNanoseconds: m.totalProcessingDurationNanos.Load(),
		KindCounters:                       kinds,
		SizeHistogram:                      m.sizeHistogram.snapshot(),
		HashHits:                           m.hashHits.Load(),
		HashIncremental:                    m.hashIncremental.Load(),
	}
}
