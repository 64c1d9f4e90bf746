// Package pipeline implements the Pipeline (C6): the event loop that
// batches RawEvents from a source, filters them, enriches the accepted
// ones, and forwards the results to a Ring, while tracking metrics an
// embedder can poll or long-poll for changes.
package pipeline

import (
	"context"
	"time"

	"github.com/retrigger-io/retrigger/pkg/enrich"
	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/filter"
	"github.com/retrigger-io/retrigger/pkg/logging"
	"github.com/retrigger-io/retrigger/pkg/ring"
	"github.com/retrigger-io/retrigger/pkg/state"
	"github.com/retrigger-io/retrigger/pkg/timeutil"
)

// Source is the minimal event feed a Pipeline consumes from. pkg/sourcing
// provides implementations wrapping both a real filesystem watcher and a
// deterministic in-memory test double.
type Source interface {
	// Events returns the channel of raw filesystem events. It is closed to
	// signal end-of-stream.
	Events() <-chan events.RawEvent
	// Errs returns a channel of non-fatal source errors (e.g. a single
	// watch target becoming unreadable); the Pipeline logs and continues.
	Errs() <-chan error
}

// Pipeline drives the Idle -> Accumulating -> (Full|Timeout) -> Flushing ->
// Idle batching state machine described by the spec: events are
// accumulated until either the batch reaches its configured size or its
// flush timer elapses, at which point the whole batch is enriched and
// pushed to the ring in one pass.
type Pipeline struct {
	config   Config
	source   Source
	filter   *filter.EventFilter
	enricher *enrich.Enricher
	ring     *ring.Ring
	logger   *logging.Logger

	metrics Metrics
	tracker *state.Tracker

	state State
}

// New creates a new Pipeline. The supplied Ring must already be a mapped
// producer (see ring.CreateProducer); the Pipeline owns its lifetime and
// shuts it down when Run returns.
func New(config Config, source Source, eventFilter *filter.EventFilter, enricher *enrich.Enricher, r *ring.Ring, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		config:   config.withDefaults(),
		source:   source,
		filter:   eventFilter,
		enricher: enricher,
		ring:     r,
		logger:   logger,
		tracker:  state.NewTracker(),
		state:    StateIdle,
	}
}

// State reports the pipeline's current position in its batching state
// machine. Intended for diagnostics; racy with respect to Run's own
// goroutine, which is fine for that purpose.
func (p *Pipeline) State() State {
	return p.state
}

// Metrics returns a point-in-time snapshot of the pipeline's counters.
func (p *Pipeline) Metrics() Snapshot {
	return p.metrics.Snapshot()
}

// WaitForMetricsChange polls for a metrics-changed notification, following
// the same contract as state.Tracker.WaitForChange: a previousIndex of 0
// returns the current index immediately, otherwise it blocks until the
// index advances past previousIndex or ctx is cancelled.
func (p *Pipeline) WaitForMetricsChange(ctx context.Context, previousIndex uint64) (uint64, error) {
	return p.tracker.WaitForChange(ctx, previousIndex)
}

// Run drives the pipeline's event loop until the source's event channel is
// closed (end-of-stream) or ctx is cancelled, in either case draining and
// flushing any partial batch and shutting down the ring before returning.
func (p *Pipeline) Run(ctx context.Context) {
	batch := make([]events.RawEvent, 0, p.config.BatchSize)
	var flushTimer *time.Timer

	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.state = StateFlushing
		p.flushBatch(batch)
		batch = batch[:0]
		p.state = StateIdle
	}

	shutdown := func() {
		flush()
		if flushTimer != nil {
			timeutil.StopAndDrainTimer(flushTimer)
		}
		if err := p.ring.Shutdown(); err != nil {
			p.logger.Debugf("ring shutdown: %v", err)
		}
	}

	for {
		var timerC <-chan time.Time
		if flushTimer != nil {
			timerC = flushTimer.C
		}

		select {
		case <-ctx.Done():
			shutdown()
			return
		case raw, ok := <-p.source.Events():
			if !ok {
				shutdown()
				return
			}
			p.metrics.recordReceived()

			if !p.filter.Accept(raw) {
				p.metrics.recordFiltered()
				continue
			}

			if len(batch) == 0 {
				p.state = StateAccumulating
				flushTimer = time.NewTimer(p.config.FlushTimeout)
			}
			batch = append(batch, raw)

			if len(batch) >= p.config.BatchSize {
				timeutil.StopAndDrainTimer(flushTimer)
				flushTimer = nil
				flush()
			}
		case <-timerC:
			flushTimer = nil
			flush()
		case err := <-p.source.Errs():
			p.logger.Warnf("source error: %v", err)
		}
	}
}

// flushBatch enriches and pushes every event in batch to the ring,
// recording per-event and per-batch metrics, and notifies WaitForMetricsChange
// waiters once the whole batch has been processed.
func (p *Pipeline) flushBatch(batch []events.RawEvent) {
	start := time.Now()
	dropped := 0

	for _, raw := range batch {
		eventStart := time.Now()
		enriched := p.enricher.Enrich(raw)
		p.metrics.recordProcessing(uint64(time.Since(eventStart).Nanoseconds()))
		p.metrics.recordKind(raw.Kind)
		p.metrics.recordSize(raw.Size)
		p.metrics.recordHash(enriched.Hash)

		if !p.ring.Push(enriched) {
			dropped++
			p.logger.Debugf("dropped event for %s: ring full", raw.Path)
		}
	}

	p.metrics.recordBatch(uint64(time.Since(start).Nanoseconds()), dropped)
	p.tracker.NotifyOfChange()
}
