package sourcing

import "github.com/retrigger-io/retrigger/pkg/events"

// MemorySource is a deterministic in-memory source, structurally
// satisfying the same Events/Errs contract as WatchSource. It's intended
// for pipeline tests that need to control exactly which events and errors
// arrive and when, without involving a real filesystem watcher.
type MemorySource struct {
	events chan events.RawEvent
	errs   chan error
}

// NewMemorySource creates an empty MemorySource with room for capacity
// buffered events before Send blocks.
func NewMemorySource(capacity int) *MemorySource {
	return &MemorySource{
		events: make(chan events.RawEvent, capacity),
		errs:   make(chan error, 1),
	}
}

// Events implements pipeline.Source.
func (s *MemorySource) Events() <-chan events.RawEvent {
	return s.events
}

// Errs implements pipeline.Source.
func (s *MemorySource) Errs() <-chan error {
	return s.errs
}

// Send delivers a RawEvent, blocking if the channel is at capacity.
func (s *MemorySource) Send(e events.RawEvent) {
	s.events <- e
}

// SendError delivers a non-fatal source error, dropping it if a prior error
// is still unconsumed, matching the same best-effort delivery WatchSource
// uses for its Errs channel.
func (s *MemorySource) SendError(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Close signals end-of-stream by closing the Events channel.
func (s *MemorySource) Close() {
	close(s.events)
}
