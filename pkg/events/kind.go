package events

// Kind identifies the type of change that a RawEvent represents. Its value
// hierarchy matches the wire encoding used by the ring (see pkg/ring), so the
// numeric values here are part of the on-disk ABI and must not be reordered.
type Kind uint32

const (
	// Created indicates that a path was newly created.
	Created Kind = iota
	// Modified indicates that the content or metadata of an existing path
	// changed in a way that should be treated as a content modification.
	Modified
	// Deleted indicates that a path was removed.
	Deleted
	// Moved indicates that a path was renamed or relocated.
	Moved
	// MetadataChanged indicates that only metadata (e.g. permissions) changed.
	MetadataChanged
)

// NameToKind converts a string-based representation of an event kind to the
// appropriate Kind value. It returns a boolean indicating whether or not the
// conversion was valid. If the name is invalid, Created is returned.
func NameToKind(name string) (Kind, bool) {
	switch name {
	case "created":
		return Created, true
	case "modified":
		return Modified, true
	case "deleted":
		return Deleted, true
	case "moved":
		return Moved, true
	case "metadata-changed":
		return MetadataChanged, true
	default:
		return Created, false
	}
}

// String provides a human-readable representation of an event kind.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	case MetadataChanged:
		return "metadata-changed"
	default:
		return "unknown"
	}
}
