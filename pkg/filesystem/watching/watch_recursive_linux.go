// +build linux

package watching

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const (
	// RecursiveWatchingSupported indicates whether or not the current platform
	// supports native recursive watching.
	RecursiveWatchingSupported = true
)

// recursiveWatcher implements RecursiveWatcher on Linux by layering directory
// enumeration on top of a NonRecursiveWatcher: every directory under the
// target is watched individually, and new directories discovered via events
// are watched as they appear.
type recursiveWatcher struct {
	// watcher is the underlying non-recursive (inotify-based) watcher.
	watcher NonRecursiveWatcher
	// root is the watch target.
	root string
	// watchedLock protects watched.
	watchedLock sync.Mutex
	// watched tracks the set of directories currently under watch so that
	// newly observed directories aren't watched twice.
	watched map[string]bool
	// events is the event delivery channel, re-exposed from the underlying
	// watcher after directory-discovery bookkeeping.
	events chan map[string]bool
	// done is closed once the forwarding loop has exited.
	done chan struct{}
}

// NewRecursiveWatcher creates a new recursive watcher for the specified
// target by walking its contents and establishing an inotify watch on every
// directory found, then keeping pace with newly created subdirectories.
func NewRecursiveWatcher(target string) (RecursiveWatcher, error) {
	watcher, err := NewNonRecursiveWatcher(nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create non-recursive watcher")
	}

	w := &recursiveWatcher{
		watcher: watcher,
		root:    target,
		watched: make(map[string]bool),
		events:  make(chan map[string]bool),
		done:    make(chan struct{}),
	}

	if err := w.watchSubtree(target); err != nil {
		watcher.Terminate()
		return nil, errors.Wrap(err, "unable to establish initial watches")
	}

	go w.run()

	return w, nil
}

// watchSubtree walks root (which may be a file or a directory) and
// establishes watches on it and every directory beneath it that isn't
// already watched.
func (w *recursiveWatcher) watchSubtree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		w.watchedLock.Lock()
		already := w.watched[path]
		w.watched[path] = true
		w.watchedLock.Unlock()
		if !already {
			w.watcher.Watch(path)
		}
		return nil
	})
}

// run forwards coalesced events from the underlying non-recursive watcher,
// extending watches to any newly created directories before forwarding.
func (w *recursiveWatcher) run() {
	defer close(w.done)
	for paths := range w.watcher.Events() {
		for path := range paths {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.watchSubtree(path)
			}
		}
		w.events <- paths
	}
}

// Events implements RecursiveWatcher.Events.
func (w *recursiveWatcher) Events() <-chan map[string]bool {
	return w.events
}

// Errors implements RecursiveWatcher.Errors.
func (w *recursiveWatcher) Errors() <-chan error {
	return w.watcher.Errors()
}

// Terminate implements RecursiveWatcher.Terminate.
func (w *recursiveWatcher) Terminate() error {
	return w.watcher.Terminate()
}
