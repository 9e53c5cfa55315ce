package catalog

import (
	"context"

	"github.com/marmos91/artifactguard/pkg/purge"
)

// StageCandidate is a purge.Candidate backed by a catalog stage.
type StageCandidate struct {
	Stage Stage
}

// ID returns the stage ID.
func (c StageCandidate) ID() string { return c.Stage.ID }

// CandidateSource feeds the purge engine from a Store.
type CandidateSource struct {
	store      Store
	batchSize  int
	keepLatest bool
}

// NewCandidateSource returns a source fetching batchSize stages per pass.
func NewCandidateSource(store Store, batchSize int, keepLatest bool) *CandidateSource {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &CandidateSource{store: store, batchSize: batchSize, keepLatest: keepLatest}
}

// OldestPurgeableUnits implements purge.CandidateSource.
func (s *CandidateSource) OldestPurgeableUnits(ctx context.Context) ([]purge.Candidate, error) {
	stages, err := s.store.OldestPurgeable(ctx, s.batchSize, s.keepLatest)
	if err != nil {
		return nil, err
	}
	out := make([]purge.Candidate, len(stages))
	for i, st := range stages {
		out[i] = StageCandidate{Stage: st}
	}
	return out, nil
}
