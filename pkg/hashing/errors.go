package hashing

import "errors"

var (
	// ErrInvalidPath indicates that a path could not be hashed because it
	// does not exist (or could not be stat'd) at hash time.
	ErrInvalidPath = errors.New("invalid path")

	// ErrReadFailed indicates that the file could be opened but a subsequent
	// read failed partway through.
	ErrReadFailed = errors.New("file read failed")

	// ErrComputeFailed indicates that the underlying hash algorithm returned
	// a failure. This is never expected during normal operation and should
	// always be bubbled up rather than recovered from.
	ErrComputeFailed = errors.New("hash computation failed")

	// ErrHasherNotInitialized indicates that an incremental Hasher was used
	// without being obtained from Engine.IncrementalNew (a zero value) or
	// after Finalize.
	ErrHasherNotInitialized = errors.New("incremental hasher not initialized")
)
