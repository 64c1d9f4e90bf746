package pipeline

// State identifies the Pipeline's current position in its batching state
// machine: Idle -> Accumulating -> (Full|Timeout, both represented by a
// transition straight to Flushing) -> Flushing -> Idle.
type State uint8

const (
	// StateIdle indicates no events are currently being accumulated.
	StateIdle State = iota
	// StateAccumulating indicates the batch has at least one event and the
	// flush timer is running.
	StateAccumulating
	// StateFlushing indicates the batch is being enriched and pushed to
	// the ring.
	StateFlushing
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}
