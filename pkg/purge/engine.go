package purge

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/artifactguard/internal/logger"
)

// Config wires the engine's collaborators. Policy, Probe, Source and Target
// are required.
type Config struct {
	Policy PolicyProvider
	Probe  SpaceProbe
	Source CandidateSource
	Target EvictionTarget

	// Flush defaults to NoFlush.
	Flush ConsistencyFlush

	// Metrics may be nil.
	Metrics Metrics

	// NewRunID defaults to random UUIDs.
	NewRunID func() string
}

// Engine coalesces space-low triggers and runs purge cycles on a single
// background worker.
type Engine struct {
	policy  PolicyProvider
	probe   SpaceProbe
	source  CandidateSource
	target  EvictionTarget
	flush   ConsistencyFlush
	metrics Metrics
	newID   func() string

	sig  *signal
	last atomic.Pointer[Report]

	obsMu     sync.RWMutex
	observers []func(Report)

	lifeMu  sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewEngine validates cfg and returns an idle engine. Call Start to launch
// the worker.
func NewEngine(cfg Config) (*Engine, error) {
	switch {
	case cfg.Policy == nil:
		return nil, fmt.Errorf("%w: policy provider", ErrMissingCollaborator)
	case cfg.Probe == nil:
		return nil, fmt.Errorf("%w: space probe", ErrMissingCollaborator)
	case cfg.Source == nil:
		return nil, fmt.Errorf("%w: candidate source", ErrMissingCollaborator)
	case cfg.Target == nil:
		return nil, fmt.Errorf("%w: eviction target", ErrMissingCollaborator)
	}

	e := &Engine{
		policy:  cfg.Policy,
		probe:   cfg.Probe,
		source:  cfg.Source,
		target:  cfg.Target,
		flush:   cfg.Flush,
		metrics: cfg.Metrics,
		newID:   cfg.NewRunID,
		sig:     newSignal(),
	}
	if e.flush == nil {
		e.flush = NoFlush
	}
	if e.metrics == nil {
		e.metrics = noopMetrics{}
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// OnReport registers fn to receive every finished run's report. Observers run
// on the worker goroutine after the engine has returned to idle.
func (e *Engine) OnReport(fn func(Report)) {
	e.obsMu.Lock()
	e.observers = append(e.observers, fn)
	e.obsMu.Unlock()
}

// Trigger requests a purge run. It never blocks and reports whether the call
// woke the worker; calls made while a run is pending or running are dropped.
// Triggers issued before Start are latched and served once the worker starts.
func (e *Engine) Trigger() bool {
	accepted := e.sig.fire()
	e.metrics.TriggerObserved(accepted)
	if accepted {
		e.metrics.StateChanged(StatePending)
	}
	return accepted
}

// CurrentLimitBytes returns the start threshold, or Unbounded when purging
// is disabled.
func (e *Engine) CurrentLimitBytes() uint64 {
	return e.policy.CurrentPolicy().Limit()
}

// CurrentTargetBytes returns the target threshold.
func (e *Engine) CurrentTargetBytes() uint64 {
	return e.policy.CurrentPolicy().TargetThresholdBytes
}

// CurrentPolicy returns the policy snapshot the next run would use.
func (e *Engine) CurrentPolicy() Policy {
	return e.policy.CurrentPolicy()
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.sig.current()
}

// LastReport returns the most recent run's report, if any run has finished.
func (e *Engine) LastReport() (Report, bool) {
	r := e.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Start launches the worker. The worker exits when ctx is cancelled or Stop
// is called.
func (e *Engine) Start(ctx context.Context) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})

	logger.Info("Purge engine started")
	go e.worker(ctx)
	return nil
}

// Stop cancels the worker and waits up to timeout for it to exit. A run in
// progress finishes its current eviction and stops before the next one.
func (e *Engine) Stop(timeout time.Duration) error {
	e.sig.close()

	e.lifeMu.Lock()
	if !e.started {
		e.lifeMu.Unlock()
		return nil
	}
	cancel, done := e.cancel, e.done
	e.lifeMu.Unlock()

	cancel()

	select {
	case <-done:
		logger.Info("Purge engine stopped")
		return nil
	case <-time.After(timeout):
		logger.Warn("Purge engine stop timed out", "timeout", timeout)
		return ErrStopTimeout
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.sig.wake:
			if ctx.Err() != nil {
				return
			}
		}

		e.sig.begin()
		e.metrics.StateChanged(StateRunning)

		rep := e.runSafely(ctx)

		e.last.Store(&rep)
		e.sig.done()
		e.metrics.StateChanged(StateIdle)
		e.metrics.RunCompleted(rep)
		e.notify(rep)
	}
}

// runSafely runs one cycle and converts a panic into a failed report so the
// worker survives misbehaving collaborators.
func (e *Engine) runSafely(ctx context.Context) (rep Report) {
	runID := e.newID()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Purge run panicked",
				logger.KeyRunID, runID, "panic", r, "stack", string(debug.Stack()))
			rep = Report{
				RunID:      runID,
				StartedAt:  start,
				FinishedAt: time.Now(),
				Err:        fmt.Errorf("%w: %v", ErrPanic, r),
			}
		}
	}()

	return e.runCycle(ctx, runID)
}

func (e *Engine) notify(rep Report) {
	e.obsMu.RLock()
	obs := append([]func(Report){}, e.observers...)
	e.obsMu.RUnlock()

	for _, fn := range obs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Purge report observer panicked", logger.KeyRunID, rep.RunID, "panic", r)
				}
			}()
			fn(rep)
		}()
	}
}
