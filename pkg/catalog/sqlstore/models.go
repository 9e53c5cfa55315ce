package sqlstore

import (
	"time"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

type stageModel struct {
	ID               string     `gorm:"primaryKey;size:36"`
	Pipeline         string     `gorm:"not null;size:255;uniqueIndex:idx_stage_identity,priority:1;index:idx_stage_pair,priority:1"`
	PipelineCounter  int        `gorm:"not null;uniqueIndex:idx_stage_identity,priority:2"`
	Name             string     `gorm:"not null;size:255;uniqueIndex:idx_stage_identity,priority:3;index:idx_stage_pair,priority:2"`
	Counter          int        `gorm:"not null;uniqueIndex:idx_stage_identity,priority:4"`
	Result           string     `gorm:"size:32"`
	CompletedAt      *time.Time `gorm:"index"`
	CreatedAt        time.Time  `gorm:"not null"`
	ArtifactsDeleted bool       `gorm:"not null;default:false;index"`
	DeletedAt        *time.Time
	Keep             bool `gorm:"not null;default:false"`
}

func (stageModel) TableName() string { return "stages" }

type protectionModel struct {
	Pipeline  string    `gorm:"primaryKey;size:255"`
	Stage     string    `gorm:"primaryKey;size:255"`
	CreatedAt time.Time `gorm:"not null"`
}

func (protectionModel) TableName() string { return "protections" }

type runModel struct {
	ID          string    `gorm:"primaryKey;size:64"`
	StartedAt   time.Time `gorm:"not null;index"`
	FinishedAt  time.Time
	Outcome     string `gorm:"size:32"`
	UnitsPurged uint32
	Failures    uint32
	Passes      int
	SpaceBefore uint64
	SpaceAfter  uint64
	Exhausted   bool
	Error       string `gorm:"type:text"`
}

func (runModel) TableName() string { return "purge_runs" }

func allModels() []any {
	return []any{&stageModel{}, &protectionModel{}, &runModel{}}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func fromStage(s *catalog.Stage) stageModel {
	return stageModel{
		ID:               s.ID,
		Pipeline:         s.Pipeline,
		PipelineCounter:  s.PipelineCounter,
		Name:             s.Name,
		Counter:          s.Counter,
		Result:           s.Result,
		CompletedAt:      utcPtr(s.CompletedAt),
		CreatedAt:        s.CreatedAt.UTC(),
		ArtifactsDeleted: s.ArtifactsDeleted,
		DeletedAt:        utcPtr(s.DeletedAt),
		Keep:             s.Keep,
	}
}

func (m stageModel) toStage() catalog.Stage {
	return catalog.Stage{
		ID:               m.ID,
		Pipeline:         m.Pipeline,
		PipelineCounter:  m.PipelineCounter,
		Name:             m.Name,
		Counter:          m.Counter,
		Result:           m.Result,
		CompletedAt:      utcPtr(m.CompletedAt),
		CreatedAt:        m.CreatedAt.UTC(),
		ArtifactsDeleted: m.ArtifactsDeleted,
		DeletedAt:        utcPtr(m.DeletedAt),
		Keep:             m.Keep,
	}
}

func toStages(ms []stageModel) []catalog.Stage {
	out := make([]catalog.Stage, len(ms))
	for i, m := range ms {
		out[i] = m.toStage()
	}
	return out
}

func fromRun(r catalog.RunRecord) runModel {
	return runModel(r)
}

func (m runModel) toRun() catalog.RunRecord {
	r := catalog.RunRecord(m)
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	return r
}
