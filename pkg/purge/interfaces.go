package purge

import "context"

// Candidate is an opaque handle to one evictable unit. The engine only uses
// ID for logging; ordering comes from the CandidateSource.
type Candidate interface {
	ID() string
}

// SpaceProbe measures the free space currently available to the artifact
// store, in bytes.
type SpaceProbe interface {
	AvailableBytes(ctx context.Context) (uint64, error)
}

// CandidateSource returns eligible units oldest first. The slice may be empty
// and is re-queried on every pass.
type CandidateSource interface {
	OldestPurgeableUnits(ctx context.Context) ([]Candidate, error)
}

// EvictionTarget deletes one unit. A call is atomic from the engine's point of
// view: it is never interrupted mid-way by cancellation.
type EvictionTarget interface {
	Purge(ctx context.Context, c Candidate) error
}

// ConsistencyFlush settles in-flight state changes (for example queued
// protection flags) before candidates are queried.
type ConsistencyFlush interface {
	Flush(ctx context.Context) error
}

// SpaceProbeFunc adapts a function to SpaceProbe.
type SpaceProbeFunc func(ctx context.Context) (uint64, error)

func (f SpaceProbeFunc) AvailableBytes(ctx context.Context) (uint64, error) { return f(ctx) }

// CandidateSourceFunc adapts a function to CandidateSource.
type CandidateSourceFunc func(ctx context.Context) ([]Candidate, error)

func (f CandidateSourceFunc) OldestPurgeableUnits(ctx context.Context) ([]Candidate, error) {
	return f(ctx)
}

// EvictionTargetFunc adapts a function to EvictionTarget.
type EvictionTargetFunc func(ctx context.Context, c Candidate) error

func (f EvictionTargetFunc) Purge(ctx context.Context, c Candidate) error { return f(ctx, c) }

// FlushFunc adapts a function to ConsistencyFlush.
type FlushFunc func(ctx context.Context) error

func (f FlushFunc) Flush(ctx context.Context) error { return f(ctx) }

// NoFlush is a ConsistencyFlush with nothing to settle.
var NoFlush ConsistencyFlush = FlushFunc(func(context.Context) error { return nil })
