package lifecycle

import "sync/atomic"

// Phase is the process phase reported by the health endpoint.
type Phase int32

const (
	// Starting: not every enabled domain has published its first snapshot.
	Starting Phase = iota
	// Ready: serving and polling.
	Ready
	// Draining: SIGTERM/SIGINT received; health returns 503 with status shutting-down.
	Draining
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// Tracker holds the current phase. Transitions only move forward.
type Tracker struct {
	phase atomic.Int32
}

// New returns a Tracker in phase Starting.
func New() *Tracker {
	return &Tracker{}
}

// Phase returns the current phase.
func (t *Tracker) Phase() Phase {
	return Phase(t.phase.Load())
}

// MarkReady moves Starting to Ready. Returns false if the tracker was not Starting.
func (t *Tracker) MarkReady() bool {
	return t.phase.CompareAndSwap(int32(Starting), int32(Ready))
}

// Drain moves to Draining from any phase.
func (t *Tracker) Drain() {
	t.phase.Store(int32(Draining))
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func (t *Tracker) IsShuttingDown() bool {
	return t.Phase() == Draining
}
