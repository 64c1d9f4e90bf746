// Package sourcing adapts pkg/filesystem/watching's coalesced path
// notifications into the events.RawEvent stream that pkg/pipeline consumes.
// It also provides a deterministic in-memory source for tests.
package sourcing

import (
	"os"
	"sync"
	"time"

	"github.com/retrigger-io/retrigger/pkg/events"
	"github.com/retrigger-io/retrigger/pkg/filesystem/watching"
	"github.com/retrigger-io/retrigger/pkg/logging"
)

// WatchSource wraps a watching.RecursiveWatcher rooted at a single
// directory, classifying each coalesced path into a Created, Modified,
// MetadataChanged, or Deleted RawEvent by diffing os.Lstat results against
// what was last observed for that path. Renames are not distinguished from a
// delete-then-create pair, since the underlying watcher reports only paths,
// not the moves between them.
type WatchSource struct {
	watcher watching.RecursiveWatcher
	logger  *logging.Logger

	events chan events.RawEvent
	errs   chan error

	knownLock sync.Mutex
	known     map[string]statRecord
}

// statRecord is the subset of os.FileInfo that WatchSource compares across
// observations of the same path to decide whether a change looks like a
// content modification or only a metadata change.
type statRecord struct {
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func newStatRecord(info os.FileInfo) statRecord {
	return statRecord{
		size:    info.Size(),
		mode:    info.Mode(),
		modTime: info.ModTime(),
		isDir:   info.IsDir(),
	}
}

// NewWatchSource creates a watch source rooted at target. It starts
// watching immediately; the caller must call Close to release the
// underlying watcher's resources.
func NewWatchSource(target string, logger *logging.Logger) (*WatchSource, error) {
	watcher, err := watching.NewRecursiveWatcher(target)
	if err != nil {
		return nil, err
	}

	s := &WatchSource{
		watcher: watcher,
		logger:  logger,
		events:  make(chan events.RawEvent, 64),
		errs:    make(chan error, 1),
		known:   make(map[string]statRecord),
	}

	go s.run()

	return s, nil
}

// Events implements pipeline.Source.
func (s *WatchSource) Events() <-chan events.RawEvent {
	return s.events
}

// Errs implements pipeline.Source.
func (s *WatchSource) Errs() <-chan error {
	return s.errs
}

// Close terminates the underlying watcher. It does not close the Events
// channel directly; that happens once run observes the watcher's own
// termination (via a closed Events channel or ErrWatchTerminated).
func (s *WatchSource) Close() error {
	return s.watcher.Terminate()
}

// run forwards coalesced path batches from the underlying watcher into
// classified RawEvents until the watcher's event channel closes.
func (s *WatchSource) run() {
	defer close(s.events)

	for {
		select {
		case paths, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			for path := range paths {
				if raw, ok := s.classify(path); ok {
					s.events <- raw
				}
			}
		case err, ok := <-s.watcher.Errors():
			if !ok {
				continue
			}
			select {
			case s.errs <- err:
			default:
				s.logger.Warnf("dropped watch error, channel full: %v", err)
			}
			if err == watching.ErrWatchTerminated {
				return
			}
		}
	}
}

// classify determines the RawEvent kind for path by comparing its current
// os.Lstat result against the last one observed for that path. It returns
// false if the path no longer exists and wasn't previously known either,
// which can happen for transient paths coalesced away before this pass.
func (s *WatchSource) classify(path string) (events.RawEvent, bool) {
	now := uint64(time.Now().UnixNano())

	info, statErr := os.Lstat(path)

	s.knownLock.Lock()
	defer s.knownLock.Unlock()

	prev, existed := s.known[path]

	if statErr != nil {
		if !existed {
			return events.RawEvent{}, false
		}
		delete(s.known, path)
		return events.RawEvent{
			Path:                 path,
			Kind:                 events.Deleted,
			TimestampNanoseconds: now,
			IsDirectory:          prev.isDir,
		}, true
	}

	current := newStatRecord(info)
	s.known[path] = current

	if !existed {
		return events.RawEvent{
			Path:                 path,
			Kind:                 events.Created,
			TimestampNanoseconds: now,
			Size:                 uint64(current.size),
			IsDirectory:          current.isDir,
		}, true
	}

	kind := events.MetadataChanged
	if current.size != prev.size || !current.modTime.Equal(prev.modTime) {
		kind = events.Modified
	}

	return events.RawEvent{
		Path:                 path,
		Kind:                 kind,
		TimestampNanoseconds: now,
		Size:                 uint64(current.size),
		IsDirectory:          current.isDir,
	}, true
}
