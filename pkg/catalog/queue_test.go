package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/catalog/memory"
)

// flakyStore fails SetProtection while failing is set.
type flakyStore struct {
	catalog.Store
	failing bool
	applied []catalog.ProtectionChange
}

func (s *flakyStore) SetProtection(ctx context.Context, key catalog.StageKey, protected bool) error {
	if s.failing {
		return errors.New("database unavailable")
	}
	s.applied = append(s.applied, catalog.ProtectionChange{Key: key, Protected: protected})
	return s.Store.SetProtection(ctx, key, protected)
}

var (
	compile = catalog.StageKey{Pipeline: "build", Stage: "compile"}
	unit    = catalog.StageKey{Pipeline: "build", Stage: "unit"}
)

func TestProtectionQueueCoalesces(t *testing.T) {
	q := catalog.NewProtectionQueue(memory.New())

	q.Submit(compile, true)
	q.Submit(unit, true)
	q.Submit(compile, false)

	assert.Equal(t, []catalog.ProtectionChange{
		{Key: unit, Protected: true},
		{Key: compile, Protected: false},
	}, q.Pending())
}

func TestProtectionQueueFlushApplies(t *testing.T) {
	store := memory.New()
	q := catalog.NewProtectionQueue(store)

	q.Submit(compile, true)
	require.NoError(t, q.Flush(t.Context()))

	list, err := store.ListProtections(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, compile, list[0].StageKey)
	assert.Empty(t, q.Pending())

	// Nothing queued is a no-op.
	require.NoError(t, q.Flush(t.Context()))
}

func TestProtectionQueueFailureRequeues(t *testing.T) {
	store := &flakyStore{Store: memory.New(), failing: true}
	q := catalog.NewProtectionQueue(store)

	q.Submit(compile, true)
	q.Submit(unit, true)
	err := q.Flush(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build/compile")
	assert.Len(t, q.Pending(), 2)

	// A newer change for the same key supersedes the failed one.
	q.Submit(compile, false)
	store.failing = false
	require.NoError(t, q.Flush(t.Context()))

	assert.Equal(t, []catalog.ProtectionChange{
		{Key: unit, Protected: true},
		{Key: compile, Protected: false},
	}, store.applied)
}
