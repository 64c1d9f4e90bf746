// +build !linux

package watching

import (
	"errors"
)

const (
	// RecursiveWatchingSupported indicates whether or not the current platform
	// supports native recursive watching.
	RecursiveWatchingSupported = false
)

// NewRecursiveWatcher is not implemented on this platform and always returns
// an error.
func NewRecursiveWatcher(_ string) (RecursiveWatcher, error) {
	return nil, errors.New("recursive watching not supported on this platform")
}
