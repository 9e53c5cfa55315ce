package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/purge"
)

type fakeEngine struct {
	limit    atomic.Uint64
	triggers atomic.Int32
	accept   bool
}

func (e *fakeEngine) CurrentLimitBytes() uint64 { return e.limit.Load() }

func (e *fakeEngine) Trigger() bool {
	e.triggers.Add(1)
	return e.accept
}

type gauge struct{ last atomic.Uint64 }

func (g *gauge) FreeSpaceObserved(b uint64) { g.last.Store(b) }

func fixedProbe(free uint64) purge.SpaceProbe {
	return purge.SpaceProbeFunc(func(context.Context) (uint64, error) { return free, nil })
}

func TestCheckTriggersBelowLimit(t *testing.T) {
	eng := &fakeEngine{accept: true}
	eng.limit.Store(100)
	g := &gauge{}

	m := New(fixedProbe(40), eng, time.Minute, g)
	res, err := m.Check(t.Context())
	require.NoError(t, err)
	assert.True(t, res.Triggered)
	assert.True(t, res.Accepted)
	assert.Equal(t, uint64(40), res.FreeBytes)
	assert.Equal(t, int32(1), eng.triggers.Load())
	assert.Equal(t, uint64(40), g.last.Load())
	assert.Equal(t, res, m.Last())
}

func TestCheckAtLimitDoesNotTrigger(t *testing.T) {
	eng := &fakeEngine{}
	eng.limit.Store(100)

	res, err := New(fixedProbe(100), eng, time.Minute, nil).Check(t.Context())
	require.NoError(t, err)
	assert.False(t, res.Triggered)
	assert.Zero(t, eng.triggers.Load())
}

func TestCheckUnboundedNeverTriggers(t *testing.T) {
	eng := &fakeEngine{}
	eng.limit.Store(purge.Unbounded)

	res, err := New(fixedProbe(0), eng, time.Minute, nil).Check(t.Context())
	require.NoError(t, err)
	assert.False(t, res.Triggered)
	assert.Zero(t, eng.triggers.Load())
}

func TestCheckCoalescedTrigger(t *testing.T) {
	eng := &fakeEngine{accept: false}
	eng.limit.Store(100)

	res, err := New(fixedProbe(1), eng, time.Minute, nil).Check(t.Context())
	require.NoError(t, err)
	assert.True(t, res.Triggered)
	assert.False(t, res.Accepted)
}

func TestCheckProbeError(t *testing.T) {
	eng := &fakeEngine{}
	probe := purge.SpaceProbeFunc(func(context.Context) (uint64, error) { return 0, errors.New("stat failed") })

	_, err := New(probe, eng, time.Minute, nil).Check(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat failed")
	assert.Zero(t, eng.triggers.Load())
}

func TestRunChecksPeriodically(t *testing.T) {
	eng := &fakeEngine{accept: true}
	eng.limit.Store(100)
	var probes atomic.Int32
	probe := purge.SpaceProbeFunc(func(context.Context) (uint64, error) {
		probes.Add(1)
		return 10, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(probe, eng, 10*time.Millisecond, nil).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return probes.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, eng.triggers.Load(), int32(3))
}
