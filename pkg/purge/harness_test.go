package purge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// unit is a test candidate that frees size bytes when evicted.
type unit struct {
	id   string
	size uint64
	fail bool
}

func (u unit) ID() string { return u.id }

// disk models an artifact store: free space grows as units are evicted.
type disk struct {
	mu        sync.Mutex
	free      uint64
	remaining []unit
	evicted   []string
	batch     int // max candidates per fetch, 0 = all

	probes  atomic.Int32
	fetches atomic.Int32
	flushes atomic.Int32

	probeErr error
	fetchErr error
	flushErr error
	onPurge  func(ctx context.Context, u unit) error
}

func newDisk(free uint64, units ...unit) *disk {
	return &disk{free: free, remaining: append([]unit(nil), units...)}
}

func (d *disk) AvailableBytes(context.Context) (uint64, error) {
	d.probes.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.probeErr != nil {
		return 0, d.probeErr
	}
	return d.free, nil
}

func (d *disk) OldestPurgeableUnits(context.Context) ([]Candidate, error) {
	d.fetches.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fetchErr != nil {
		return nil, d.fetchErr
	}
	out := make([]Candidate, 0, len(d.remaining))
	for _, u := range d.remaining {
		if d.batch > 0 && len(out) == d.batch {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

func (d *disk) Flush(context.Context) error {
	d.flushes.Add(1)
	return d.flushErr
}

func (d *disk) Purge(ctx context.Context, c Candidate) error {
	u := c.(unit)
	if d.onPurge != nil {
		if err := d.onPurge(ctx, u); err != nil {
			return err
		}
	}
	if u.fail {
		return errors.New("permission denied")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.remaining {
		if r.id == u.id {
			d.remaining = append(d.remaining[:i], d.remaining[i+1:]...)
			break
		}
	}
	d.free += u.size
	d.evicted = append(d.evicted, u.id)
	return nil
}

func (d *disk) evictedIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.evicted...)
}

// switchable is a PolicyProvider tests can change mid-run.
type switchable struct {
	mu sync.Mutex
	p  Policy
}

func (s *switchable) CurrentPolicy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

func (s *switchable) set(p Policy) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func enabled(start, target uint64) *switchable {
	return &switchable{p: Policy{Enabled: true, StartThresholdBytes: start, TargetThresholdBytes: target}}
}

func newTestEngine(t *testing.T, pol PolicyProvider, d *disk) *Engine {
	t.Helper()
	var seq atomic.Int32
	e, err := NewEngine(Config{
		Policy: pol,
		Probe:  d,
		Source: d,
		Target: d,
		Flush:  d,
		NewRunID: func() string {
			return fmt.Sprintf("run-%d", seq.Add(1))
		},
	})
	require.NoError(t, err)
	return e
}

// startWithReports starts e and returns a channel receiving every report.
func startWithReports(t *testing.T, e *Engine) <-chan Report {
	t.Helper()
	reports := make(chan Report, 16)
	e.OnReport(func(r Report) { reports <- r })
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop(5 * time.Second) })
	return reports
}

func waitReport(t *testing.T, reports <-chan Report) Report {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for purge report")
		return Report{}
	}
}

func noMoreReports(t *testing.T, reports <-chan Report) {
	t.Helper()
	select {
	case r := <-reports:
		t.Fatalf("unexpected extra run %q", r.RunID)
	case <-time.After(100 * time.Millisecond):
	}
}
