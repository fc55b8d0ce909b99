package poller

// State is a coordinator's position in its poll cycle.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateMerging
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateMerging:
		return "merging"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of one poll pass, used in snapshots, logs and metrics.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"   // every adapter succeeded
	OutcomePartial   Outcome = "partial"   // some adapters failed
	OutcomeError     Outcome = "error"     // every adapter failed
	OutcomeFailed    Outcome = "failed"    // the pass itself panicked
	OutcomeAbandoned Outcome = "abandoned" // cancelled before publish
)
