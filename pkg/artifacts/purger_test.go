package artifacts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/artifacts"
	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/catalog/memory"
	"github.com/marmos91/artifactguard/pkg/purge"
)

type recordingStore struct {
	deleted []artifacts.Locator
	err     error
}

func (s *recordingStore) DeleteStage(ctx context.Context, loc artifacts.Locator) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.deleted = append(s.deleted, loc)
	return 2048, nil
}

func (s *recordingStore) Healthcheck(context.Context) error { return nil }

type recordingMetrics struct {
	freed int64
	errs  int
}

func (m *recordingMetrics) ObserveDelete(_ string, freed int64, _ time.Duration, err error) {
	m.freed += freed
	if err != nil {
		m.errs++
	}
}

func registerStage(t *testing.T, cat catalog.Store) catalog.Stage {
	t.Helper()
	done := time.Now().UTC()
	st := catalog.Stage{Pipeline: "build", PipelineCounter: 3, Name: "compile", Counter: 2, CompletedAt: &done}
	require.NoError(t, cat.RegisterStage(t.Context(), &st))
	return st
}

func TestPurgerDeletesAndMarks(t *testing.T) {
	cat := memory.New()
	st := registerStage(t, cat)
	store := &recordingStore{}
	metrics := &recordingMetrics{}

	p := artifacts.NewPurger(store, cat, "filesystem", metrics)
	require.NoError(t, p.Purge(t.Context(), catalog.StageCandidate{Stage: st}))

	require.Len(t, store.deleted, 1)
	assert.Equal(t, "pipelines/build/3/compile/2", store.deleted[0].Path())
	assert.Equal(t, int64(2048), metrics.freed)

	got, err := cat.GetStage(t.Context(), st.ID)
	require.NoError(t, err)
	assert.True(t, got.ArtifactsDeleted)
}

func TestPurgerLooksUpPlainCandidates(t *testing.T) {
	cat := memory.New()
	st := registerStage(t, cat)
	store := &recordingStore{}

	p := artifacts.NewPurger(store, cat, "filesystem", nil)
	c := purge.Candidate(plainCandidate(st.ID))
	require.NoError(t, p.Purge(t.Context(), c))
	assert.Len(t, store.deleted, 1)

	assert.ErrorIs(t, p.Purge(t.Context(), plainCandidate("missing")), catalog.ErrStageNotFound)
}

func TestPurgerStoreFailureLeavesStage(t *testing.T) {
	cat := memory.New()
	st := registerStage(t, cat)
	metrics := &recordingMetrics{}

	p := artifacts.NewPurger(&recordingStore{err: errors.New("permission denied")}, cat, "filesystem", metrics)
	err := p.Purge(t.Context(), catalog.StageCandidate{Stage: st})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, 1, metrics.errs)

	got, err := cat.GetStage(t.Context(), st.ID)
	require.NoError(t, err)
	assert.False(t, got.ArtifactsDeleted)
}

func TestPurgerSkipsAlreadyDeleted(t *testing.T) {
	cat := memory.New()
	st := registerStage(t, cat)
	st.ArtifactsDeleted = true
	store := &recordingStore{}

	require.NoError(t, artifacts.NewPurger(store, cat, "filesystem", nil).Purge(t.Context(), catalog.StageCandidate{Stage: st}))
	assert.Empty(t, store.deleted)
}

type plainCandidate string

func (c plainCandidate) ID() string { return string(c) }
