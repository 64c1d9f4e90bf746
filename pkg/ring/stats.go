package ring

import "sync/atomic"

// Stats is a point-in-time snapshot of a ring's header statistics.
type Stats struct {
	Capacity              uint32
	InRing                uint32
	TotalEvents           uint64
	DroppedEvents         uint64
	MaxUtilizationPercent uint32
	AvgLatencyNanoseconds uint64
	ProducerPID           uint32
	ConsumerPID           uint32
	ShutdownRequested     bool
}

// Stats returns a snapshot of the ring's header counters. Safe to call from
// either role.
func (r *Ring) Stats() Stats {
	h := r.header
	writePos := atomic.LoadUint32(&h.WritePos)
	readPos := atomic.LoadUint32(&h.ReadPos)

	return Stats{
		Capacity:              h.Capacity,
		InRing:                (writePos - readPos + h.Capacity) % h.Capacity,
		TotalEvents:           atomic.LoadUint64(&h.TotalEvents),
		DroppedEvents:         atomic.LoadUint64(&h.DroppedEvents),
		MaxUtilizationPercent: atomic.LoadUint32(&h.MaxUtilization),
		AvgLatencyNanoseconds: atomic.LoadUint64(&h.AvgLatencyNanos),
		ProducerPID:           atomic.LoadUint32(&h.ProducerPID),
		ConsumerPID:           atomic.LoadUint32(&h.ConsumerPID),
		ShutdownRequested:     atomic.LoadUint32(&h.Shutdown) != 0,
	}
}
