package catalogtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

func runEligibilityTests(t *testing.T, factory StoreFactory) {
	t.Run("OldestFirst", func(t *testing.T) {
		store := factory(t)
		newest := register(t, store, "build", 3, "compile", 1, at(30))
		oldest := register(t, store, "build", 1, "compile", 1, at(10))
		middle := register(t, store, "build", 2, "compile", 1, at(20))

		got, err := store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{oldest.ID, middle.ID, newest.ID}, ids(got))
	})

	t.Run("Limit", func(t *testing.T) {
		store := factory(t)
		a := register(t, store, "build", 1, "compile", 1, at(1))
		b := register(t, store, "build", 2, "compile", 1, at(2))
		register(t, store, "build", 3, "compile", 1, at(3))

		got, err := store.OldestPurgeable(t.Context(), 2, false)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, b.ID}, ids(got))
	})

	t.Run("TiesOrderedByID", func(t *testing.T) {
		store := factory(t)
		x := catalog.Stage{ID: "b-stage", Pipeline: "p", PipelineCounter: 1, Name: "s", Counter: 1, CompletedAt: at(5)}
		y := catalog.Stage{ID: "a-stage", Pipeline: "p", PipelineCounter: 2, Name: "s", Counter: 1, CompletedAt: at(5)}
		require.NoError(t, store.RegisterStage(t.Context(), &x))
		require.NoError(t, store.RegisterStage(t.Context(), &y))

		got, err := store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"a-stage", "b-stage"}, ids(got))
	})

	t.Run("SkipsIneligible", func(t *testing.T) {
		store := factory(t)
		running := catalog.Stage{Pipeline: "build", PipelineCounter: 1, Name: "compile", Counter: 1}
		require.NoError(t, store.RegisterStage(t.Context(), &running))
		deleted := register(t, store, "build", 2, "compile", 1, at(2))
		kept := register(t, store, "build", 3, "compile", 1, at(3))
		ok := register(t, store, "build", 4, "compile", 1, at(4))

		require.NoError(t, store.MarkArtifactsDeleted(t.Context(), deleted.ID))
		require.NoError(t, store.SetKeep(t.Context(), kept.ID, true))

		got, err := store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{ok.ID}, ids(got))
	})

	t.Run("KeepLatest", func(t *testing.T) {
		store := factory(t)
		b1 := register(t, store, "build", 1, "compile", 1, at(1))
		b2r1 := register(t, store, "build", 2, "compile", 1, at(2))
		b2r2 := register(t, store, "build", 2, "compile", 2, at(3))
		only := register(t, store, "deploy", 1, "ship", 1, at(4))

		got, err := store.OldestPurgeable(t.Context(), 10, true)
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID, b2r1.ID}, ids(got))

		all, err := store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID, b2r1.ID, b2r2.ID, only.ID}, ids(all))
	})

	t.Run("KeepLatestIgnoresRunning", func(t *testing.T) {
		store := factory(t)
		done := register(t, store, "build", 1, "compile", 1, at(1))
		running := catalog.Stage{Pipeline: "build", PipelineCounter: 2, Name: "compile", Counter: 1}
		require.NoError(t, store.RegisterStage(t.Context(), &running))

		got, err := store.OldestPurgeable(t.Context(), 10, true)
		require.NoError(t, err)
		assert.Empty(t, got, "%s is the newest completed run", done.Identifier())
	})

	t.Run("Empty", func(t *testing.T) {
		store := factory(t)
		got, err := store.OldestPurgeable(t.Context(), 10, true)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
