package purge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/internal/telemetry"
)

// runCycle performs one purge run. Only the worker goroutine calls it.
func (e *Engine) runCycle(ctx context.Context, runID string) (rep Report) {
	rep = Report{RunID: runID, StartedAt: time.Now()}
	defer func() { rep.FinishedAt = time.Now() }()

	ctx = logger.WithContext(ctx, logger.NewLogContext("purge").WithRun(runID))

	policy := e.policy.CurrentPolicy()
	if !policy.Enabled {
		rep.Disabled = true
		logger.DebugCtx(ctx, "Purge disabled, skipping run")
		return rep
	}

	ctx, span := telemetry.StartCycleSpan(ctx, runID)
	defer span.End()

	required := policy.TargetThresholdBytes
	free, err := e.measure(ctx)
	if err != nil {
		return e.abort(ctx, rep, err)
	}
	rep.SpaceBefore, rep.SpaceAfter = free, free

	logger.InfoCtx(ctx, "Purge run started",
		logger.FreeBytes(free), logger.TargetBytes(required))

	for {
		rep.Passes++

		if err := e.flush.Flush(ctx); err != nil {
			return e.abort(ctx, rep, fmt.Errorf("consistency flush: %w", err))
		}

		candidates, err := e.source.OldestPurgeableUnits(ctx)
		if err != nil {
			return e.abort(ctx, rep, fmt.Errorf("fetch candidates: %w", err))
		}
		telemetry.AddEvent(ctx, "purge.pass",
			telemetry.Pass(rep.Passes), telemetry.Candidates(len(candidates)))
		logger.DebugCtx(ctx, "Purge pass",
			logger.KeyPasses, rep.Passes, logger.KeyCandidates, len(candidates))

		purged := 0
		for _, c := range candidates {
			if ctx.Err() != nil {
				return e.abort(ctx, rep, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err()))
			}

			free, err := e.measure(ctx)
			if err != nil {
				return e.abort(ctx, rep, err)
			}
			rep.SpaceAfter = free
			if free > required {
				break
			}

			if e.evict(ctx, c) {
				rep.UnitsPurged++
				purged++
			} else {
				rep.Failures++
			}
		}
		if ctx.Err() != nil {
			return e.abort(ctx, rep, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err()))
		}

		free, err = e.measure(ctx)
		if err != nil {
			return e.abort(ctx, rep, err)
		}
		rep.SpaceAfter = free

		if free >= required || len(candidates) == 0 {
			break
		}
		if purged == 0 {
			logger.WarnCtx(ctx, "Purge pass made no progress, ending run",
				logger.KeyCandidates, len(candidates), logger.KeyFailures, rep.Failures)
			break
		}

		policy = e.policy.CurrentPolicy()
		if !policy.Enabled {
			rep.Disabled = true
			logger.InfoCtx(ctx, "Purge disabled during run, stopping at pass boundary",
				logger.KeyPasses, rep.Passes)
			break
		}
		required = policy.TargetThresholdBytes
	}

	if !rep.Disabled && rep.SpaceAfter < required {
		rep.Exhausted = true
		logger.WarnCtx(ctx, "Purge exhausted candidates before reaching target",
			logger.FreeBytes(rep.SpaceAfter), logger.TargetBytes(required),
			logger.KeyPurged, rep.UnitsPurged)
	}

	telemetry.SetAttributes(ctx,
		telemetry.UnitsPurged(rep.UnitsPurged),
		telemetry.Failures(rep.Failures),
		telemetry.Exhausted(rep.Exhausted),
		telemetry.FreeBytes(rep.SpaceAfter))

	logger.InfoCtx(ctx, "Purge run finished",
		logger.KeyPurged, rep.UnitsPurged,
		logger.KeyFailures, rep.Failures,
		logger.KeyBefore, rep.SpaceBefore,
		logger.KeyAfter, rep.SpaceAfter,
		logger.KeyPasses, rep.Passes,
		logger.DurationMs(rep.StartedAt))

	return rep
}

func (e *Engine) measure(ctx context.Context) (uint64, error) {
	free, err := e.probe.AvailableBytes(ctx)
	if err != nil {
		return 0, fmt.Errorf("probe free space: %w", err)
	}
	e.metrics.FreeSpaceObserved(free)
	return free, nil
}

// evict deletes one candidate. Failures are logged and reported as false.
func (e *Engine) evict(ctx context.Context, c Candidate) bool {
	id := c.ID()
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithStage(id))
	ctx, span := telemetry.StartEvictSpan(ctx, id)
	defer span.End()

	start := time.Now()
	err := e.target.Purge(context.WithoutCancel(ctx), c)
	e.metrics.EvictionObserved(err == nil)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "Eviction failed, skipping candidate", logger.Err(err))
		return false
	}
	logger.DebugCtx(ctx, "Evicted candidate", logger.DurationMs(start))
	return true
}

func (e *Engine) abort(ctx context.Context, rep Report, err error) Report {
	rep.Err = err
	telemetry.RecordError(ctx, err)
	if errors.Is(err, ErrInterrupted) {
		logger.WarnCtx(ctx, "Purge run interrupted",
			logger.KeyPurged, rep.UnitsPurged, logger.KeyPasses, rep.Passes)
		return rep
	}
	logger.ErrorCtx(ctx, "Purge run aborted", logger.Err(err),
		logger.KeyPurged, rep.UnitsPurged, logger.KeyPasses, rep.Passes)
	return rep
}
