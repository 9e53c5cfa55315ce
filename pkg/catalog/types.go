package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Stage results as reported by the CI server.
const (
	ResultPassed    = "passed"
	ResultFailed    = "failed"
	ResultCancelled = "cancelled"
	ResultUnknown   = "unknown"
)

// Stage is one run of a pipeline stage and the artifacts it produced.
type Stage struct {
	ID              string     `json:"id"`
	Pipeline        string     `json:"pipeline"`
	PipelineCounter int        `json:"pipeline_counter"`
	Name            string     `json:"name"`
	Counter         int        `json:"counter"`
	Result          string     `json:"result"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// ArtifactsDeleted is set once the stage's artifacts were purged.
	ArtifactsDeleted bool       `json:"artifacts_deleted"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`

	// Keep pins this single run regardless of age.
	Keep bool `json:"keep"`
}

// Completed reports whether the stage has finished running.
func (s Stage) Completed() bool {
	return s.CompletedAt != nil
}

// Key identifies the pipeline/stage pair the run belongs to.
func (s Stage) Key() StageKey {
	return StageKey{Pipeline: s.Pipeline, Stage: s.Name}
}

// Identifier renders "pipeline/counter/stage/counter".
func (s Stage) Identifier() string {
	return fmt.Sprintf("%s/%d/%s/%d", s.Pipeline, s.PipelineCounter, s.Name, s.Counter)
}

// Validate checks the fields every backend requires.
func (s Stage) Validate() error {
	switch {
	case strings.TrimSpace(s.Pipeline) == "":
		return fmt.Errorf("%w: pipeline is required", ErrInvalidStage)
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: stage name is required", ErrInvalidStage)
	case s.PipelineCounter < 1:
		return fmt.Errorf("%w: pipeline counter must be positive", ErrInvalidStage)
	case s.Counter < 1:
		return fmt.Errorf("%w: stage counter must be positive", ErrInvalidStage)
	case strings.ContainsAny(s.Pipeline+s.Name, "/\\"):
		return fmt.Errorf("%w: names must not contain path separators", ErrInvalidStage)
	case isDotName(s.Pipeline) || isDotName(s.Name):
		return fmt.Errorf("%w: names must not be %q or %q", ErrInvalidStage, ".", "..")
	}
	return nil
}

func isDotName(name string) bool {
	return name == "." || name == ".."
}

// NewerThan reports whether s is a later run of the same pair than o.
func (s Stage) NewerThan(o Stage) bool {
	if s.PipelineCounter != o.PipelineCounter {
		return s.PipelineCounter > o.PipelineCounter
	}
	return s.Counter > o.Counter
}

// StageKey names a pipeline/stage pair across all of its runs.
type StageKey struct {
	Pipeline string `json:"pipeline"`
	Stage    string `json:"stage"`
}

func (k StageKey) String() string {
	return k.Pipeline + "/" + k.Stage
}

// Protection excludes every run of a pipeline/stage pair from purging.
type Protection struct {
	StageKey
	CreatedAt time.Time `json:"created_at"`
}

// RunRecord is the persisted summary of one purge run.
type RunRecord struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Outcome     string    `json:"outcome"`
	UnitsPurged uint32    `json:"units_purged"`
	Failures    uint32    `json:"failures"`
	Passes      int       `json:"passes"`
	SpaceBefore uint64    `json:"space_before"`
	SpaceAfter  uint64    `json:"space_after"`
	Exhausted   bool      `json:"exhausted"`
	Error       string    `json:"error,omitempty"`
}

// StageFilter narrows ListStages.
type StageFilter struct {
	Pipeline string
	Stage    string

	// OnlyWithArtifacts hides stages whose artifacts were deleted.
	OnlyWithArtifacts bool

	// Limit caps the result; 0 means no limit.
	Limit int
}

// Matches reports whether s passes the filter (ignoring Limit).
func (f StageFilter) Matches(s Stage) bool {
	if f.Pipeline != "" && s.Pipeline != f.Pipeline {
		return false
	}
	if f.Stage != "" && s.Name != f.Stage {
		return false
	}
	if f.OnlyWithArtifacts && s.ArtifactsDeleted {
		return false
	}
	return true
}
