// Package monitor polls free space and triggers the purge engine when it
// drops below the configured limit.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/internal/telemetry"
	"github.com/marmos91/artifactguard/pkg/purge"
)

// Engine is the part of the purge engine the monitor drives.
type Engine interface {
	CurrentLimitBytes() uint64
	Trigger() bool
}

// Gauge receives every free-space reading. It may be nil.
type Gauge interface {
	FreeSpaceObserved(bytes uint64)
}

// Result describes one check.
type Result struct {
	FreeBytes  uint64
	LimitBytes uint64

	// Triggered is set when free space was below the limit.
	Triggered bool

	// Accepted is set when the engine took the trigger rather than
	// coalescing it into an already pending run.
	Accepted bool

	CheckedAt time.Time
}

// Monitor compares free space against the engine's limit.
type Monitor struct {
	probe    purge.SpaceProbe
	engine   Engine
	interval time.Duration
	gauge    Gauge

	mu   sync.Mutex
	last Result
}

// New creates a monitor checking every interval.
func New(probe purge.SpaceProbe, engine Engine, interval time.Duration, gauge Gauge) *Monitor {
	return &Monitor{probe: probe, engine: engine, interval: interval, gauge: gauge}
}

// Check probes once and triggers the engine if space is short. The server
// calls it after every stage registration as well as on the ticker.
func (m *Monitor) Check(ctx context.Context) (Result, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanMonitor)
	defer span.End()

	free, err := m.probe.AvailableBytes(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return Result{}, fmt.Errorf("probe free space: %w", err)
	}
	if m.gauge != nil {
		m.gauge.FreeSpaceObserved(free)
	}

	res := Result{FreeBytes: free, LimitBytes: m.engine.CurrentLimitBytes(), CheckedAt: time.Now()}
	if res.LimitBytes != purge.Unbounded && free < res.LimitBytes {
		res.Triggered = true
		res.Accepted = m.engine.Trigger()
		logger.DebugCtx(ctx, "Free space below limit",
			logger.FreeBytes(free), logger.LimitBytes(res.LimitBytes), "accepted", res.Accepted)
	}
	telemetry.SetAttributes(ctx, telemetry.FreeBytes(free))

	m.mu.Lock()
	m.last = res
	m.mu.Unlock()
	return res, nil
}

// Last returns the most recent successful check.
func (m *Monitor) Last() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Run checks immediately and then on every tick until ctx is done. Probe
// errors are logged and do not stop the loop.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logger.Info("Disk space monitor started", "interval", m.interval.String())
	for {
		if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Disk space check failed", logger.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
