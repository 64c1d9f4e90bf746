package ring

import "github.com/pkg/errors"

// Sentinel errors returned by Ring construction and operation. Per-event
// push/pop failures are signaled via the boolean return of Push/Pop rather
// than these errors (the ring's drop-on-full discipline is the hot-path
// backpressure mechanism); these are exposed for callers that want a
// richer, error-returning wrapper around the boolean API and for the fatal
// startup paths below.
var (
	// ErrMapFailed indicates that creating, opening, or mapping the backing
	// file failed. Fatal at attach time.
	ErrMapFailed = errors.New("ring: failed to map backing file")

	// ErrHeaderInvalid indicates that a consumer attached to a file whose
	// magic or version does not match this package's expectations. Fatal
	// at attach time.
	ErrHeaderInvalid = errors.New("ring: header magic or version mismatch")

	// ErrFull indicates a push failed because the ring is at capacity.
	ErrFull = errors.New("ring: buffer full")

	// ErrShutdown indicates the ring's shutdown flag has been observed.
	ErrShutdown = errors.New("ring: shutdown")

	// ErrWrongRole indicates Push was called on a consumer-mapped ring, or
	// Pop on a producer-mapped one. Roles are pinned for the lifetime of a
	// mapped instance.
	ErrWrongRole = errors.New("ring: operation not valid for this ring's role")

	// ErrConsumerTimedOut indicates a consumer gave up waiting for the
	// producer to create the backing file.
	ErrConsumerTimedOut = errors.New("ring: timed out waiting for producer")
)
