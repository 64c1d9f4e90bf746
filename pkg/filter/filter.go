// Package filter implements the event pipeline's ingress filter: glob-based
// include/exclude matching, size bounds, and per-path debouncing.
package filter

import (
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/logging"
)

// EventFilter decides whether a RawEvent should continue through the
// pipeline. It is safe for concurrent use.
type EventFilter struct {
	config Config
	logger *logging.Logger

	lastAcceptedLock sync.Mutex
	lastAccepted     map[string]time.Time
}

// New creates a new EventFilter. It returns an error if any configured
// pattern is not a valid doublestar pattern.
func New(config Config, logger *logging.Logger) (*EventFilter, error) {
	for _, pattern := range config.IncludePatterns {
		if _, err := doublestar.Match(pattern, "a"); err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
	}
	for _, pattern := range config.ExcludePatterns {
		if _, err := doublestar.Match(pattern, "a"); err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
	}

	return &EventFilter{
		config:       config,
		logger:       logger,
		lastAccepted: make(map[string]time.Time),
	}, nil
}

// Accept reports whether event should continue through the pipeline. Checks
// run in order: size bounds, exclude patterns, include patterns, debounce —
// matching the spec's rule ordering (cheap, frequent checks first).
func (f *EventFilter) Accept(event events.RawEvent) bool {
	if event.Size < f.config.MinSize {
		f.logger.Debugf("rejecting %s: size %d below minimum %d", event.Path, event.Size, f.config.MinSize)
		return false
	}
	if f.config.MaxSize != nil && event.Size > *f.config.MaxSize {
		f.logger.Debugf("rejecting %s: size %d above maximum %d", event.Path, event.Size, *f.config.MaxSize)
		return false
	}

	for _, pattern := range f.config.ExcludePatterns {
		if matches(pattern, event.Path) {
			f.logger.Debugf("rejecting %s: matched exclude pattern %s", event.Path, pattern)
			return false
		}
	}

	if len(f.config.IncludePatterns) > 0 {
		var included bool
		for _, pattern := range f.config.IncludePatterns {
			if matches(pattern, event.Path) {
				included = true
				break
			}
		}
		if !included {
			f.logger.Debugf("rejecting %s: no include pattern matched", event.Path)
			return false
		}
	}

	if f.config.DebounceMilliseconds > 0 {
		return f.debounce(event.Path)
	}

	return true
}

// debounce reports whether enough time has elapsed since the last accepted
// event for path, and records the current time as the new last-accepted time
// if so.
func (f *EventFilter) debounce(path string) bool {
	now := time.Now()
	window := time.Duration(f.config.DebounceMilliseconds) * time.Millisecond

	f.lastAcceptedLock.Lock()
	defer f.lastAcceptedLock.Unlock()

	if last, ok := f.lastAccepted[path]; ok && now.Sub(last) < window {
		return false
	}

	f.lastAccepted[path] = now
	return true
}

// matches reports whether pattern matches path, treating an invalid pattern
// (which New should have already rejected) as a non-match.
func matches(pattern, path string) bool {
	matched, err := doublestar.Match(pattern, path)
	return err == nil && matched
}

// PatternError indicates that a configured glob pattern failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "invalid pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
