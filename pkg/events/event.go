// Package events defines the data records shared by the pipeline, cache,
// filter, and ring: RawEvent as produced by a source, HashResult as produced
// by the hasher, and EnrichedEvent as produced by the enricher.
package events

// RawEvent represents a single filesystem change as reported by a source. It
// is immutable after creation and is not retained past the Pipeline's
// processing of it.
type RawEvent struct {
	// Path is the filesystem path affected by the event.
	Path string
	// Kind identifies the type of change.
	Kind Kind
	// TimestampNanoseconds is the event time in nanoseconds since the Unix
	// epoch.
	TimestampNanoseconds uint64
	// Size is the size of the affected file in bytes (0 for directories and
	// for events where size is not meaningful).
	Size uint64
	// IsDirectory indicates whether the affected path is a directory.
	IsDirectory bool
}

// HashResult represents the outcome of hashing some bytes or a file.
type HashResult struct {
	// Hash is the 64-bit fingerprint. For the tree-hash path this is the
	// leading 8 bytes of the digest (interpreted little-endian).
	Hash uint64
	// Size is the length of the hashed input, saturating at MaxUint32 for
	// inputs that exceed that length.
	Size uint32
	// IsIncremental indicates whether this result was produced by the
	// incremental (block-wise) hashing API rather than a single-shot call.
	IsIncremental bool
}

// EnrichedEvent is a RawEvent augmented with an optional fingerprint and a
// processing-time measurement. It is produced by the Enricher and is
// immutable.
type EnrichedEvent struct {
	// Raw is the original event.
	Raw RawEvent
	// Hash is the computed fingerprint, or nil if none was computed (for
	// directories, deletions, moves, and metadata-only changes on files).
	Hash *HashResult
	// ProcessingTimeNanoseconds is the wall-clock time spent inside
	// Enricher.Enrich for this event.
	ProcessingTimeNanoseconds uint64
}
