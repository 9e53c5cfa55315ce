package purge

import "time"

// Report describes one purge run. It is produced by the worker and handed to
// observers; the engine itself keeps only the latest one in memory.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	UnitsPurged uint32
	Failures    uint32
	Passes      int

	SpaceBefore uint64
	SpaceAfter  uint64

	// Exhausted is set when candidates ran out while free space was still
	// below the target.
	Exhausted bool

	// Disabled is set when the policy was disabled at the start of the run or
	// became disabled at a pass boundary.
	Disabled bool

	// Err is set when the run was aborted.
	Err error
}

// Outcome labels.
const (
	OutcomeReclaimed = "reclaimed"
	OutcomeExhausted = "exhausted"
	OutcomeDisabled  = "disabled"
	OutcomeFailed    = "failed"
)

// Outcome classifies the run for metrics and history.
func (r Report) Outcome() string {
	switch {
	case r.Err != nil:
		return OutcomeFailed
	case r.Exhausted:
		return OutcomeExhausted
	case r.Disabled:
		return OutcomeDisabled
	default:
		return OutcomeReclaimed
	}
}

// Duration is the wall time of the run.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Freed is the net free-space gain observed by the probe. Concurrent writers
// can make it smaller than the bytes actually deleted.
func (r Report) Freed() uint64 {
	if r.SpaceAfter <= r.SpaceBefore {
		return 0
	}
	return r.SpaceAfter - r.SpaceBefore
}
