package purge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gb = uint64(1) << 30

func TestCycle_PurgesOldestUntilTargetReached(t *testing.T) {
	// 3GB free, target 5GB; A brings it to 4GB, B to 6GB, C would reach 10GB.
	d := newDisk(3*gb,
		unit{id: "A", size: 1 * gb},
		unit{id: "B", size: 2 * gb},
		unit{id: "C", size: 4 * gb},
	)
	e := newTestEngine(t, enabled(4*gb, 5*gb), d)

	rep := e.runCycle(context.Background(), "run")

	assert.Equal(t, []string{"A", "B"}, d.evictedIDs())
	assert.Equal(t, uint32(2), rep.UnitsPurged)
	assert.False(t, rep.Exhausted)
	assert.NoError(t, rep.Err)
	assert.Equal(t, 3*gb, rep.SpaceBefore)
	assert.Equal(t, 6*gb, rep.SpaceAfter)
	assert.Equal(t, 1, rep.Passes)
	assert.Equal(t, OutcomeReclaimed, rep.Outcome())
	assert.False(t, rep.FinishedAt.Before(rep.StartedAt))
}

func TestCycle_EmptyFirstFetchIsExhausted(t *testing.T) {
	d := newDisk(1 * gb)
	e := newTestEngine(t, enabled(2*gb, 5*gb), d)

	rep := e.runCycle(context.Background(), "run")

	assert.Zero(t, rep.UnitsPurged)
	assert.True(t, rep.Exhausted)
	assert.Equal(t, 1, rep.Passes)
	assert.Equal(t, int32(1), d.fetches.Load())
	assert.Equal(t, OutcomeExhausted, rep.Outcome())
}

func TestCycle_DisabledPolicyTouchesNothing(t *testing.T) {
	d := newDisk(0, unit{id: "A", size: gb})
	e := newTestEngine(t, &switchable{p: Policy{Enabled: false, TargetThresholdBytes: 5 * gb}}, d)

	rep := e.runCycle(context.Background(), "run")

	assert.True(t, rep.Disabled)
	assert.Zero(t, rep.UnitsPurged)
	assert.Zero(t, d.probes.Load())
	assert.Zero(t, d.fetches.Load())
	assert.Zero(t, d.flushes.Load())
	assert.Empty(t, d.evictedIDs())
	assert.Equal(t, OutcomeDisabled, rep.Outcome())
}

func TestCycle_TargetAlreadySatisfied(t *testing.T) {
	d := newDisk(10*gb, unit{id: "A", size: gb}, unit{id: "B", size: gb})
	e := newTestEngine(t, enabled(4*gb, 5*gb), d)

	rep := e.runCycle(context.Background(), "run")

	assert.Zero(t, rep.UnitsPurged)
	assert.False(t, rep.Exhausted)
	assert.Equal(t, int32(1), d.flushes.Load())
	assert.Equal(t, int32(1), d.fetches.Load())
	assert.Empty(t, d.evictedIDs())
}

func TestCycle_EvictsMinimalPrefix(t *testing.T) {
	for _, n := range []int{1, 2, 5, 9} {
		units := make([]unit, 10)
		for i := range units {
			units[i] = unit{id: string(rune('a' + i)), size: 2}
		}
		// each eviction adds 2 bytes starting from 1: free goes 1,3,5,...
		target := uint64(2*n - 1)
		d := newDisk(1, units...)
		e := newTestEngine(t, enabled(1, target), d)

		rep := e.runCycle(context.Background(), "run")

		require.Len(t, d.evictedIDs(), n, "target %d", target)
		assert.Equal(t, uint32(n), rep.UnitsPurged)
		for i, id := range d.evictedIDs() {
			assert.Equal(t, units[i].id, id)
		}
	}
}

func TestCycle_RequeriesCandidatesEachPass(t *testing.T) {
	d := newDisk(0,
		unit{id: "A", size: 1}, unit{id: "B", size: 1},
		unit{id: "C", size: 1}, unit{id: "D", size: 1},
		unit{id: "E", size: 1},
	)
	d.batch = 2
	e := newTestEngine(t, enabled(1, 5), d)

	rep := e.runCycle(context.Background(), "run")

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, d.evictedIDs())
	assert.Equal(t, 3, rep.Passes)
	assert.Equal(t, int32(3), d.flushes.Load())
	assert.Equal(t, int32(3), d.fetches.Load())
	assert.False(t, rep.Exhausted)
}

func TestCycle_RunsOutOfCandidatesAcrossPasses(t *testing.T) {
	d := newDisk(0, unit{id: "A", size: 1}, unit{id: "B", size: 1}, unit{id: "C", size: 1})
	d.batch = 2
	e := newTestEngine(t, enabled(10, 100), d)

	rep := e.runCycle(context.Background(), "run")

	assert.Equal(t, uint32(3), rep.UnitsPurged)
	assert.True(t, rep.Exhausted)
	// the third fetch comes back empty and ends the run
	assert.Equal(t, 3, rep.Passes)
}

func TestCycle_SkipsFailedEvictions(t *testing.T) {
	d := newDisk(0,
		unit{id: "A", size: 5, fail: true},
		unit{id: "B", size: 5},
		unit{id: "C", size: 5},
	)
	e := newTestEngine(t, enabled(1, 8), d)

	rep := e.runCycle(context.Background(), "run")

	assert.Equal(t, []string{"B", "C"}, d.evictedIDs())
	assert.Equal(t, uint32(2), rep.UnitsPurged)
	assert.Equal(t, uint32(1), rep.Failures)
	assert.NoError(t, rep.Err)
}

func TestCycle_PassWithoutProgressEndsRun(t *testing.T) {
	d := newDisk(0, unit{id: "stuck", size: 5, fail: true})
	e := newTestEngine(t, enabled(1, 8), d)

	rep := e.runCycle(context.Background(), "run")

	assert.Equal(t, 1, rep.Passes)
	assert.Equal(t, uint32(1), rep.Failures)
	assert.Zero(t, rep.UnitsPurged)
	assert.True(t, rep.Exhausted)
}

func TestCycle_CollaboratorFailuresAbortRun(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		setup func(d *disk)
	}{
		{"probe", func(d *disk) { d.probeErr = boom }},
		{"fetch", func(d *disk) { d.fetchErr = boom }},
		{"flush", func(d *disk) { d.flushErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDisk(0, unit{id: "A", size: 1})
			tt.setup(d)
			e := newTestEngine(t, enabled(1, 8), d)

			rep := e.runCycle(context.Background(), "run")

			require.Error(t, rep.Err)
			assert.ErrorIs(t, rep.Err, boom)
			assert.Empty(t, d.evictedIDs())
			assert.Equal(t, OutcomeFailed, rep.Outcome())
		})
	}
}

func TestCycle_PolicyDisabledAtPassBoundary(t *testing.T) {
	pol := enabled(1, 100)
	d := newDisk(0, unit{id: "A", size: 1}, unit{id: "B", size: 1}, unit{id: "C", size: 1})
	d.batch = 1
	d.onPurge = func(context.Context, unit) error {
		pol.set(Policy{Enabled: false})
		return nil
	}
	e := newTestEngine(t, pol, d)

	rep := e.runCycle(context.Background(), "run")

	assert.Equal(t, []string{"A"}, d.evictedIDs())
	assert.True(t, rep.Disabled)
	assert.False(t, rep.Exhausted)
	assert.Equal(t, 1, rep.Passes)
}

func TestCycle_TargetChangeAppliesAtPassBoundary(t *testing.T) {
	pol := enabled(1, 2)
	d := newDisk(0,
		unit{id: "A", size: 1}, unit{id: "B", size: 1},
		unit{id: "C", size: 1}, unit{id: "D", size: 1},
	)
	d.batch = 1
	d.onPurge = func(_ context.Context, u unit) error {
		if u.id == "A" {
			pol.set(Policy{Enabled: true, StartThresholdBytes: 1, TargetThresholdBytes: 3})
		}
		return nil
	}
	e := newTestEngine(t, pol, d)

	rep := e.runCycle(context.Background(), "run")

	assert.Equal(t, []string{"A", "B", "C"}, d.evictedIDs())
	assert.Equal(t, uint64(3), rep.SpaceAfter)
	assert.False(t, rep.Exhausted)
}

func TestCycle_CancellationStopsBetweenCandidates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := newDisk(0, unit{id: "A", size: 1}, unit{id: "B", size: 1})
	var purgeErr error
	d.onPurge = func(pctx context.Context, _ unit) error {
		cancel()
		purgeErr = pctx.Err()
		return nil
	}
	e := newTestEngine(t, enabled(1, 10), d)

	rep := e.runCycle(ctx, "run")

	assert.NoError(t, purgeErr, "an eviction in progress runs to completion")
	assert.Equal(t, []string{"A"}, d.evictedIDs())
	assert.ErrorIs(t, rep.Err, ErrInterrupted)
	assert.ErrorIs(t, rep.Err, context.Canceled)
	assert.Equal(t, uint32(1), rep.UnitsPurged)
}

func TestCycle_IdempotentWithEmptySource(t *testing.T) {
	d := newDisk(10 * gb)
	e := newTestEngine(t, enabled(1*gb, 5*gb), d)

	first := e.runCycle(context.Background(), "run-1")
	second := e.runCycle(context.Background(), "run-2")

	for _, rep := range []Report{first, second} {
		assert.Zero(t, rep.UnitsPurged)
		assert.False(t, rep.Exhausted)
		assert.NoError(t, rep.Err)
	}
}
