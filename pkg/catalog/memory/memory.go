// Package memory provides an in-process catalog store for tests and
// single-shot deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

// Store is a map-backed catalog.Store.
type Store struct {
	mu          sync.RWMutex
	stages      map[string]catalog.Stage
	identifiers map[string]string
	protections map[catalog.StageKey]time.Time
	runs        []catalog.RunRecord
	closed      bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		stages:      make(map[string]catalog.Stage),
		identifiers: make(map[string]string),
		protections: make(map[catalog.StageKey]time.Time),
	}
}

func (s *Store) RegisterStage(ctx context.Context, st *catalog.Stage) error {
	if err := st.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return catalog.ErrClosed
	}

	ident := st.Identifier()
	if _, ok := s.identifiers[ident]; ok {
		return catalog.ErrDuplicateStage
	}
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if _, ok := s.stages[st.ID]; ok {
		return catalog.ErrDuplicateStage
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	s.stages[st.ID] = cloneStage(*st)
	s.identifiers[ident] = st.ID
	return nil
}

func (s *Store) GetStage(ctx context.Context, id string) (*catalog.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}

	st, ok := s.stages[id]
	if !ok {
		return nil, catalog.ErrStageNotFound
	}
	out := cloneStage(st)
	return &out, nil
}

func (s *Store) ListStages(ctx context.Context, f catalog.StageFilter) ([]catalog.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}

	out := make([]catalog.Stage, 0)
	for _, st := range s.stages {
		if f.Matches(st) {
			out = append(out, cloneStage(st))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) OldestPurgeable(ctx context.Context, limit int, keepLatest bool) ([]catalog.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}

	all := make([]catalog.Stage, 0, len(s.stages))
	for _, st := range s.stages {
		all = append(all, cloneStage(st))
	}
	protected := make(map[catalog.StageKey]bool, len(s.protections))
	for k := range s.protections {
		protected[k] = true
	}
	return catalog.SelectPurgeable(all, protected, limit, keepLatest), nil
}

func (s *Store) MarkArtifactsDeleted(ctx context.Context, id string) error {
	return s.update(id, func(st *catalog.Stage) {
		if st.ArtifactsDeleted {
			return
		}
		now := time.Now().UTC()
		st.ArtifactsDeleted = true
		st.DeletedAt = &now
	})
}

func (s *Store) SetKeep(ctx context.Context, id string, keep bool) error {
	return s.update(id, func(st *catalog.Stage) { st.Keep = keep })
}

func (s *Store) update(id string, fn func(*catalog.Stage)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return catalog.ErrClosed
	}

	st, ok := s.stages[id]
	if !ok {
		return catalog.ErrStageNotFound
	}
	fn(&st)
	s.stages[id] = st
	return nil
}

func (s *Store) SetProtection(ctx context.Context, key catalog.StageKey, protected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return catalog.ErrClosed
	}

	if !protected {
		delete(s.protections, key)
		return nil
	}
	if _, ok := s.protections[key]; !ok {
		s.protections[key] = time.Now().UTC()
	}
	return nil
}

func (s *Store) ListProtections(ctx context.Context) ([]catalog.Protection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}

	out := make([]catalog.Protection, 0, len(s.protections))
	for k, at := range s.protections {
		out = append(out, catalog.Protection{StageKey: k, CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) RecordRun(ctx context.Context, r catalog.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return catalog.ErrClosed
	}
	s.runs = append(s.runs, r)
	return nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]catalog.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, catalog.ErrClosed
	}

	out := make([]catalog.RunRecord, len(s.runs))
	copy(out, s.runs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Healthcheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return catalog.ErrClosed
	}
	return ctx.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// cloneStage copies the time pointers so callers cannot mutate stored state.
func cloneStage(st catalog.Stage) catalog.Stage {
	if st.CompletedAt != nil {
		t := *st.CompletedAt
		st.CompletedAt = &t
	}
	if st.DeletedAt != nil {
		t := *st.DeletedAt
		st.DeletedAt = &t
	}
	return st
}

var _ catalog.Store = (*Store)(nil)
