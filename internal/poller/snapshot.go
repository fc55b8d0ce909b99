package poller

import (
	"time"

	"github.com/kjstillabower/mountain-weather-poller/internal/models"
)

// Snapshot is the published state of one domain. A published Snapshot is
// never modified; each publish stores a new value.
type Snapshot[T any] struct {
	Domain models.Domain
	// Record is the last merged record, nil until the first success.
	Record *T
	// Sequence increases by one on every publish.
	Sequence uint64
	// MergedAt is the time of the last cycle that merged new data.
	MergedAt    time.Time
	LastSuccess time.Time
	LastFailure time.Time
	LastError   string
	// LastErrorKind is the client.ErrorCategory of LastError.
	LastErrorKind string
	FailedParts   []string
	// Stale is set when Record holds values carried over from an earlier cycle.
	Stale       bool
	LastOutcome Outcome
	// State is the coordinator state at read time.
	State State
}

// Available reports whether the domain has ever produced a successful record.
func (s Snapshot[T]) Available() bool {
	return s.Record != nil
}

// View is the type-erased form of a Snapshot, used by the registry and HTTP layer.
type View struct {
	Domain        models.Domain `json:"domain"`
	Available     bool          `json:"available"`
	Stale         bool          `json:"stale"`
	Sequence      uint64        `json:"sequence"`
	State         State         `json:"state"`
	LastOutcome   Outcome       `json:"lastOutcome,omitempty"`
	MergedAt      *time.Time    `json:"mergedAt,omitempty"`
	LastSuccess   *time.Time    `json:"lastSuccess,omitempty"`
	LastFailure   *time.Time    `json:"lastFailure,omitempty"`
	LastError     string        `json:"lastError,omitempty"`
	LastErrorKind string        `json:"lastErrorKind,omitempty"`
	FailedParts   []string      `json:"failedParts,omitempty"`
	Record        any           `json:"record"`
}

// View converts s. Record is nil (not a typed nil pointer) when unavailable.
func (s Snapshot[T]) View() View {
	v := View{
		Domain:        s.Domain,
		Available:     s.Available(),
		Stale:         s.Stale,
		Sequence:      s.Sequence,
		State:         s.State,
		LastOutcome:   s.LastOutcome,
		MergedAt:      timePtr(s.MergedAt),
		LastSuccess:   timePtr(s.LastSuccess),
		LastFailure:   timePtr(s.LastFailure),
		LastError:     s.LastError,
		LastErrorKind: s.LastErrorKind,
		FailedParts:   s.FailedParts,
	}
	if s.Record != nil {
		v.Record = s.Record
	}
	return v
}

// Age returns how long ago the last success happened, or -1 if never.
func (v View) Age(now time.Time) time.Duration {
	if v.LastSuccess == nil {
		return -1
	}
	return now.Sub(*v.LastSuccess)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
