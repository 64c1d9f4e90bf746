// +build !linux

package watching

import (
	"errors"
)

const (
	// NonRecursiveWatchingSupported indicates whether or not the current
	// platform supports native non-recursive watching.
	NonRecursiveWatchingSupported = false
)

// NewNonRecursiveWatcher is not implemented on this platform and always
// returns an error.
func NewNonRecursiveWatcher(_ Filter) (NonRecursiveWatcher, error) {
	return nil, errors.New("non-recursive watching not supported on this platform")
}
