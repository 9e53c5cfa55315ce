package catalog

import "context"

// Store persists stages, protections and purge history.
// Implementations must be safe for concurrent use.
type Store interface {
	// RegisterStage records a stage run. An empty ID is assigned by the
	// store. Registering the same pipeline/counter/stage/counter twice
	// returns ErrDuplicateStage.
	RegisterStage(ctx context.Context, s *Stage) error

	GetStage(ctx context.Context, id string) (*Stage, error)
	ListStages(ctx context.Context, f StageFilter) ([]Stage, error)

	// OldestPurgeable returns up to limit purgeable stages, oldest first.
	OldestPurgeable(ctx context.Context, limit int, keepLatest bool) ([]Stage, error)

	// MarkArtifactsDeleted flags a stage as purged. It is idempotent.
	MarkArtifactsDeleted(ctx context.Context, id string) error

	SetKeep(ctx context.Context, id string, keep bool) error

	// SetProtection adds or removes a protection. Both directions are
	// idempotent.
	SetProtection(ctx context.Context, key StageKey, protected bool) error
	ListProtections(ctx context.Context) ([]Protection, error)

	RecordRun(ctx context.Context, r RunRecord) error

	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	Healthcheck(ctx context.Context) error
	Close() error
}
