package catalog

import (
	"context"
	"time"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/purge"
)

// RunRecordFromReport converts an engine report into its persisted form.
func RunRecordFromReport(r purge.Report) RunRecord {
	rec := RunRecord{
		ID:          r.RunID,
		StartedAt:   r.StartedAt.UTC(),
		FinishedAt:  r.FinishedAt.UTC(),
		Outcome:     r.Outcome(),
		UnitsPurged: r.UnitsPurged,
		Failures:    r.Failures,
		Passes:      r.Passes,
		SpaceBefore: r.SpaceBefore,
		SpaceAfter:  r.SpaceAfter,
		Exhausted:   r.Exhausted,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

// RecordReports returns an engine observer persisting every report to store.
// Runs skipped because purging is disabled are not recorded.
func RecordReports(store Store, timeout time.Duration) func(purge.Report) {
	return func(r purge.Report) {
		if r.Disabled && r.Passes == 0 && r.Err == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := store.RecordRun(ctx, RunRecordFromReport(r)); err != nil {
			logger.Warn("Failed to record purge run", logger.KeyRunID, r.RunID, logger.Err(err))
		}
	}
}
