package catalogtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

func runStageTests(t *testing.T, factory StoreFactory) {
	t.Run("RegisterAndGet", func(t *testing.T) {
		store := factory(t)
		st := register(t, store, "build", 1, "compile", 1, at(5))

		got, err := store.GetStage(t.Context(), st.ID)
		require.NoError(t, err)
		assert.Equal(t, "build", got.Pipeline)
		assert.Equal(t, 1, got.PipelineCounter)
		assert.Equal(t, "compile", got.Name)
		assert.Equal(t, catalog.ResultPassed, got.Result)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(*at(5)))
		assert.False(t, got.ArtifactsDeleted)
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("ExplicitIDKept", func(t *testing.T) {
		store := factory(t)
		st := catalog.Stage{ID: "stage-1", Pipeline: "p", PipelineCounter: 1, Name: "s", Counter: 1}
		require.NoError(t, store.RegisterStage(t.Context(), &st))
		assert.Equal(t, "stage-1", st.ID)

		got, err := store.GetStage(t.Context(), "stage-1")
		require.NoError(t, err)
		assert.False(t, got.Completed())
	})

	t.Run("DuplicateIdentifier", func(t *testing.T) {
		store := factory(t)
		register(t, store, "build", 1, "compile", 1, at(1))

		dup := catalog.Stage{Pipeline: "build", PipelineCounter: 1, Name: "compile", Counter: 1}
		err := store.RegisterStage(t.Context(), &dup)
		assert.ErrorIs(t, err, catalog.ErrDuplicateStage)
	})

	t.Run("InvalidStageRejected", func(t *testing.T) {
		store := factory(t)
		for _, bad := range []catalog.Stage{
			{Pipeline: "", PipelineCounter: 1, Name: "s", Counter: 1},
			{Pipeline: "..", PipelineCounter: 1, Name: "..", Counter: 1},
			{Pipeline: "build", PipelineCounter: 1, Name: ".", Counter: 1},
			{Pipeline: "a/b", PipelineCounter: 1, Name: "s", Counter: 1},
		} {
			assert.ErrorIs(t, store.RegisterStage(t.Context(), &bad), catalog.ErrInvalidStage,
				"pipeline %q stage %q", bad.Pipeline, bad.Name)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := factory(t)
		_, err := store.GetStage(t.Context(), "nope")
		assert.ErrorIs(t, err, catalog.ErrStageNotFound)
	})

	t.Run("ListFiltered", func(t *testing.T) {
		store := factory(t)
		a := register(t, store, "build", 1, "compile", 1, at(1))
		b := register(t, store, "build", 2, "compile", 1, at(2))
		c := register(t, store, "deploy", 3, "ship", 1, at(3))
		require.NoError(t, store.MarkArtifactsDeleted(t.Context(), a.ID))

		all, err := store.ListStages(t.Context(), catalog.StageFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids(all))

		build, err := store.ListStages(t.Context(), catalog.StageFilter{Pipeline: "build"})
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, b.ID}, ids(build))

		live, err := store.ListStages(t.Context(), catalog.StageFilter{OnlyWithArtifacts: true})
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID, c.ID}, ids(live))

		limited, err := store.ListStages(t.Context(), catalog.StageFilter{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, ids(limited))
	})

	t.Run("MarkArtifactsDeletedIdempotent", func(t *testing.T) {
		store := factory(t)
		st := register(t, store, "build", 1, "compile", 1, at(1))

		require.NoError(t, store.MarkArtifactsDeleted(t.Context(), st.ID))
		first, err := store.GetStage(t.Context(), st.ID)
		require.NoError(t, err)
		assert.True(t, first.ArtifactsDeleted)
		require.NotNil(t, first.DeletedAt)

		require.NoError(t, store.MarkArtifactsDeleted(t.Context(), st.ID))
		second, err := store.GetStage(t.Context(), st.ID)
		require.NoError(t, err)
		assert.True(t, second.DeletedAt.Equal(*first.DeletedAt))
	})

	t.Run("MarkMissing", func(t *testing.T) {
		store := factory(t)
		assert.ErrorIs(t, store.MarkArtifactsDeleted(t.Context(), "nope"), catalog.ErrStageNotFound)
		assert.ErrorIs(t, store.SetKeep(t.Context(), "nope", true), catalog.ErrStageNotFound)
	})

	t.Run("SetKeep", func(t *testing.T) {
		store := factory(t)
		st := register(t, store, "build", 1, "compile", 1, at(1))

		require.NoError(t, store.SetKeep(t.Context(), st.ID, true))
		require.NoError(t, store.SetKeep(t.Context(), st.ID, true))
		got, err := store.GetStage(t.Context(), st.ID)
		require.NoError(t, err)
		assert.True(t, got.Keep)

		require.NoError(t, store.SetKeep(t.Context(), st.ID, false))
		got, err = store.GetStage(t.Context(), st.ID)
		require.NoError(t, err)
		assert.False(t, got.Keep)
	})

	t.Run("Healthcheck", func(t *testing.T) {
		store := factory(t)
		assert.NoError(t, store.Healthcheck(t.Context()))
	})
}
