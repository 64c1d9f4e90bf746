package ring

import "time"

// DefaultCapacity is the slot count used when a Config does not override
// it.
const DefaultCapacity = 4096

// DefaultPollInterval is the sleep between poll attempts when a consumer
// has no wake-notifier to wait on, matching the spec's 1ms polling rule.
const DefaultPollInterval = time.Millisecond

// bootstrapPollInterval and bootstrapTimeout bound how long a consumer will
// wait for a producer to create the backing file before giving up.
const (
	bootstrapPollInterval = 10 * time.Millisecond
	bootstrapTimeout      = time.Second
)

// Config configures a Ring's backing file and slot geometry.
type Config struct {
	// Path is the backing file's filesystem path. There is no
	// package-level default: callers are expected to supply an
	// OS-appropriate temporary path (conventionally named
	// "retrigger-ipc.mmap").
	Path string
	// Capacity is the number of slots in the ring. Defaults to
	// DefaultCapacity if zero.
	Capacity uint32
	// EventSize is the fixed byte size of each slot. Defaults to
	// DefaultEventSize if zero. Slots are always encoded with a full
	// MaxPathBytes path buffer, so a smaller value does not shrink the path
	// budget; EventSize must be at least DefaultEventSize.
	EventSize uint32
}

func (c Config) withDefaults() Config {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.EventSize == 0 {
		c.EventSize = DefaultEventSize
	}
	return c
}

func (c Config) fileSize() int64 {
	return int64(HeaderSize) + int64(c.Capacity)*int64(c.EventSize)
}
