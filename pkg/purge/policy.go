package purge

import "math"

// Unbounded is the limit reported when purging is disabled. Monitors must
// treat it as "no limit" and never trigger.
const Unbounded uint64 = math.MaxUint64

// Policy is an immutable snapshot of the purge configuration.
type Policy struct {
	Enabled bool

	// StartThresholdBytes is the free-space level below which a run is
	// triggered.
	StartThresholdBytes uint64

	// TargetThresholdBytes is the free-space level a run tries to reach.
	// It is not required to exceed StartThresholdBytes.
	TargetThresholdBytes uint64
}

// Limit returns the trigger threshold, or Unbounded when disabled.
func (p Policy) Limit() uint64 {
	if !p.Enabled {
		return Unbounded
	}
	return p.StartThresholdBytes
}

// PolicyProvider returns the current policy. Implementations must be safe for
// concurrent use; the engine calls it from the worker and from API readers.
type PolicyProvider interface {
	CurrentPolicy() Policy
}

// PolicyFunc adapts a function to PolicyProvider.
type PolicyFunc func() Policy

func (f PolicyFunc) CurrentPolicy() Policy { return f() }
