package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/purge"
)

// Metrics observes artifact deletions. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveDelete(backend string, freed int64, d time.Duration, err error)
}

// Purger is the engine's eviction target: it deletes a stage's artifacts
// and then flags the stage in the catalog.
type Purger struct {
	store   Store
	catalog catalog.Store
	backend string
	metrics Metrics
}

// NewPurger creates a purger. backend labels logs and metrics; metrics may
// be nil.
func NewPurger(store Store, cat catalog.Store, backend string, metrics Metrics) *Purger {
	return &Purger{store: store, catalog: cat, backend: backend, metrics: metrics}
}

// Purge implements purge.EvictionTarget.
func (p *Purger) Purge(ctx context.Context, c purge.Candidate) error {
	stage, err := p.stageFor(ctx, c)
	if err != nil {
		return err
	}
	if stage.ArtifactsDeleted {
		return nil
	}

	loc := LocatorFor(stage)
	if err := loc.Validate(); err != nil {
		return err
	}
	start := time.Now()
	freed, err := p.store.DeleteStage(ctx, loc)
	if p.metrics != nil {
		p.metrics.ObserveDelete(p.backend, freed, time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("delete artifacts of %s: %w", loc, err)
	}

	if err := p.catalog.MarkArtifactsDeleted(ctx, stage.ID); err != nil {
		return fmt.Errorf("mark %s deleted: %w", loc, err)
	}

	logger.DebugCtx(ctx, "Stage artifacts deleted",
		logger.StageID(stage.ID),
		logger.Path(loc.Path()),
		logger.KeyBytesFreed, humanize.IBytes(uint64(max(freed, 0))),
		logger.DurationMs(start))
	return nil
}

func (p *Purger) stageFor(ctx context.Context, c purge.Candidate) (catalog.Stage, error) {
	if sc, ok := c.(catalog.StageCandidate); ok {
		return sc.Stage, nil
	}
	st, err := p.catalog.GetStage(ctx, c.ID())
	if err != nil {
		return catalog.Stage{}, fmt.Errorf("load stage %s: %w", c.ID(), err)
	}
	return *st, nil
}
