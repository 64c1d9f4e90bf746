// Package ring implements the lock-free single-producer/single-consumer
// shared-memory ring used as cross-process transport: a memory-mapped file
// holding a fixed C-ABI header followed by a fixed number of fixed-size
// event slots. Producer and consumer roles are pinned for the lifetime of a
// mapped Ring; only header atomics are accessed across processes, and slot
// bytes are fully written before write_pos is published (Release) and only
// read after write_pos is observed (Acquire), establishing the
// happens-before edge the spec requires.
package ring

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/retrigger-io/retrigger/pkg/contextutil"
	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/logging"
	"github.com/retrigger-io/retrigger/pkg/must"
)

// Role identifies whether a mapped Ring instance may Push or Pop.
type Role uint8

const (
	// RoleProducer may Push but not Pop.
	RoleProducer Role = iota
	// RoleConsumer may Pop but not Push.
	RoleConsumer
)

// String returns a human-readable representation of the role.
func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// Ring is a mapped view of a ring file, pinned to a single role.
type Ring struct {
	config Config
	role   Role
	logger *logging.Logger

	file   *os.File
	data   []byte
	header *Header
	slots  []byte

	closed atomic.Bool
}

// CreateProducer creates (or truncates) the backing file at config.Path,
// maps it read-write, and writes a fresh header. It is an error to call
// this against a path an existing consumer is already attached to; the
// producer owns the file's lifetime and deletes it on Shutdown.
func CreateProducer(config Config, logger *logging.Logger) (*Ring, error) {
	config = config.withDefaults()

	file, err := os.OpenFile(config.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrap(ErrMapFailed, err.Error())
	}

	if err := file.Truncate(config.fileSize()); err != nil {
		must.Close(file, logger)
		return nil, errors.Wrap(ErrMapFailed, err.Error())
	}

	data, err := mapFile(file, int(config.fileSize()), logger)
	if err != nil {
		must.Close(file, logger)
		return nil, errors.Wrap(ErrMapFailed, err.Error())
	}

	header := headerAt(data)
	header.Magic = Magic
	header.Version = Version
	header.Capacity = config.Capacity
	header.EventSize = config.EventSize
	atomic.StoreUint32(&header.WritePos, 0)
	atomic.StoreUint32(&header.ReadPos, 0)
	atomic.StoreUint32(&header.ProducerPID, uint32(os.Getpid()))
	atomic.StoreUint32(&header.Shutdown, 0)

	logger.Infof("created ring at %s with capacity %d", config.Path, config.Capacity)

	return &Ring{
		config: config,
		role:   RoleProducer,
		logger: logger,
		file:   file,
		data:   data,
		header: header,
		slots:  data[HeaderSize:],
	}, nil
}

// CreateConsumer attaches to an existing ring file at config.Path, polling
// up to ~1s (10ms sleeps) if the file does not yet exist, maps it
// read-write at its on-disk size, and then validates the header's magic and
// version, unmapping again if they do not match.
func CreateConsumer(ctx context.Context, config Config, logger *logging.Logger) (*Ring, error) {
	config = config.withDefaults()

	file, err := waitForFile(ctx, config.Path)
	if err != nil {
		return nil, err
	}

	// Map the file at its actual on-disk size rather than the size implied
	// by our own Config: the producer is authoritative for capacity and
	// event size, and mapping a region larger than the backing file risks
	// a fault if those values ever diverge from what we assumed here.
	info, err := file.Stat()
	if err != nil {
		must.Close(file, logger)
		return nil, errors.Wrap(ErrMapFailed, err.Error())
	}

	data, err := mapFile(file, int(info.Size()), logger)
	if err != nil {
		must.Close(file, logger)
		return nil, errors.Wrap(ErrMapFailed, err.Error())
	}

	header := headerAt(data)
	if header.Magic != Magic || header.Version != Version {
		if uerr := unmapFile(data); uerr != nil {
			logger.Warnf("failed to unmap invalid ring file: %v", uerr)
		}
		must.Close(file, logger)
		return nil, ErrHeaderInvalid
	}

	config.Capacity = header.Capacity
	config.EventSize = header.EventSize

	atomic.StoreUint32(&header.ConsumerPID, uint32(os.Getpid()))

	logger.Infof("attached to ring at %s with capacity %d", config.Path, header.Capacity)

	return &Ring{
		config: config,
		role:   RoleConsumer,
		logger: logger,
		file:   file,
		data:   data,
		header: header,
		slots:  data[HeaderSize:],
	}, nil
}

// waitForFile polls for path to exist, matching the spec's ~1s/10ms
// bootstrapping rule for a consumer racing a not-yet-started producer.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	deadline := time.Now().Add(bootstrapTimeout)
	for {
		file, err := os.OpenFile(path, os.O_RDWR, 0644)
		if err == nil {
			return file, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(ErrMapFailed, err.Error())
		}
		if contextutil.IsCancelled(ctx) {
			return nil, ctx.Err()
		}
		if time.Now().After(deadline) {
			return nil, ErrConsumerTimedOut
		}
		time.Sleep(bootstrapPollInterval)
	}
}

// slotAt returns the byte range of the configured slot index.
func (r *Ring) slotAt(index uint32) []byte {
	size := int(r.config.EventSize)
	offset := int(index) * size
	return r.slots[offset : offset+size]
}

// Push attempts to enqueue ev. It returns false (and increments the ring's
// dropped-events counter) if the ring is full, or if called on a
// consumer-mapped Ring.
func (r *Ring) Push(ev events.EnrichedEvent) bool {
	if r.role != RoleProducer {
		r.logger.Warnf("push called on a %s ring", r.role)
		return false
	}

	h := r.header
	w := atomic.LoadUint32(&h.WritePos)
	readPos := atomic.LoadUint32(&h.ReadPos)
	next := (w + 1) % h.Capacity

	if next == readPos {
		atomic.AddUint64(&h.DroppedEvents, 1)
		return false
	}

	encodeSlot(r.slotAt(w), ev)

	now := uint64(time.Now().UnixNano())
	atomic.StoreUint64(&h.LastWriteTSNanos, now)
	atomic.AddUint64(&h.TotalEvents, 1)
	r.updateMaxUtilization(next, readPos)

	atomic.StoreUint32(&h.WritePos, next)
	return true
}

// Pop attempts to dequeue the oldest unread event. It returns false if the
// ring is empty, or if called on a producer-mapped Ring. Pop is an alias
// the spec calls TryRecv on the consumer-facing surface.
func (r *Ring) Pop() (events.EnrichedEvent, bool) {
	if r.role != RoleConsumer {
		r.logger.Warnf("pop called on a %s ring", r.role)
		return events.EnrichedEvent{}, false
	}

	h := r.header
	readPos := atomic.LoadUint32(&h.ReadPos)
	w := atomic.LoadUint32(&h.WritePos)

	if readPos == w {
		return events.EnrichedEvent{}, false
	}

	ev := decodeSlot(r.slotAt(readPos))

	now := uint64(time.Now().UnixNano())
	atomic.StoreUint64(&h.LastReadTSNanos, now)
	r.updateAvgLatency(now, ev.Raw.TimestampNanoseconds)

	atomic.StoreUint32(&h.ReadPos, (readPos+1)%h.Capacity)
	return ev, true
}

// TryRecv is an alias for Pop, matching the spec's consumer-facing naming.
func (r *Ring) TryRecv() (events.EnrichedEvent, bool) {
	return r.Pop()
}

// RecvWithTimeout polls Pop until it succeeds, the ring's shutdown flag is
// observed, or d elapses, sleeping DefaultPollInterval between attempts
// (this package does not implement a platform wake-notifier; see
// DESIGN.md).
func (r *Ring) RecvWithTimeout(d time.Duration) (events.EnrichedEvent, bool) {
	deadline := time.Now().Add(d)
	for {
		if ev, ok := r.Pop(); ok {
			return ev, true
		}
		if r.IsShutdown() {
			return events.EnrichedEvent{}, false
		}
		if time.Now().After(deadline) {
			return events.EnrichedEvent{}, false
		}
		time.Sleep(DefaultPollInterval)
	}
}

// IsShutdown reports whether the ring's shutdown flag has been observed.
func (r *Ring) IsShutdown() bool {
	return atomic.LoadUint32(&r.header.Shutdown) != 0
}

// updateMaxUtilization records the highest fill level observed so far, as a
// percentage of capacity.
func (r *Ring) updateMaxUtilization(writePos, readPos uint32) {
	h := r.header
	filled := (writePos - readPos + h.Capacity) % h.Capacity
	percent := filled * 100 / h.Capacity

	for {
		current := atomic.LoadUint32(&h.MaxUtilization)
		if percent <= current {
			return
		}
		if atomic.CompareAndSwapUint32(&h.MaxUtilization, current, percent) {
			return
		}
	}
}

// updateAvgLatency folds a freshly observed latency sample into the
// header's exponentially-smoothed average, using the spec's
// (old+new)/2 rule.
func (r *Ring) updateAvgLatency(now, eventTimestamp uint64) {
	if now < eventTimestamp {
		return
	}
	latency := now - eventTimestamp
	h := r.header

	for {
		old := atomic.LoadUint64(&h.AvgLatencyNanos)
		next := latency
		if old != 0 {
			next = (old + latency) / 2
		}
		if atomic.CompareAndSwapUint64(&h.AvgLatencyNanos, old, next) {
			return
		}
	}
}

// Shutdown sets the ring's shutdown flag, unmaps the file, and deletes the
// backing file. Valid only on a producer-mapped Ring, which owns the
// file's lifetime.
func (r *Ring) Shutdown() error {
	if r.role != RoleProducer {
		return ErrWrongRole
	}
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	atomic.StoreUint32(&r.header.Shutdown, 1)

	if err := unmapFile(r.data); err != nil {
		r.logger.Warnf("failed to unmap ring: %v", err)
	}
	must.Close(r.file, r.logger)
	must.OSRemove(r.config.Path, r.logger)

	return nil
}

// Close unmaps the ring without deleting the backing file. Consumers
// should call this when done; producers should call Shutdown instead.
func (r *Ring) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := unmapFile(r.data); err != nil {
		r.logger.Warnf("failed to unmap ring: %v", err)
	}
	must.Close(r.file, r.logger)

	return nil
}

// Role reports this Ring's pinned role.
func (r *Ring) Role() Role {
	return r.role
}
