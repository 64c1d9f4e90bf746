package filter

// Config configures an EventFilter.
type Config struct {
	// IncludePatterns are doublestar glob patterns; if empty, all paths
	// match the include set.
	IncludePatterns []string
	// ExcludePatterns are doublestar glob patterns checked before
	// IncludePatterns.
	ExcludePatterns []string
	// MinSize is the minimum event size (inclusive) that will be accepted.
	MinSize uint64
	// MaxSize is the maximum event size (inclusive) that will be accepted,
	// or nil for no upper bound.
	MaxSize *uint64
	// DebounceMilliseconds suppresses repeated events for the same path that
	// arrive within this many milliseconds of the last accepted event for
	// that path. Zero disables debouncing.
	DebounceMilliseconds uint64
}
