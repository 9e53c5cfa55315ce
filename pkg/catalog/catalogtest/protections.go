package catalogtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

func runProtectionTests(t *testing.T, factory StoreFactory) {
	t.Run("ProtectExcludesAllRuns", func(t *testing.T) {
		store := factory(t)
		register(t, store, "build", 1, "compile", 1, at(1))
		register(t, store, "build", 2, "compile", 1, at(2))
		other := register(t, store, "build", 1, "test", 1, at(3))

		key := catalog.StageKey{Pipeline: "build", Stage: "compile"}
		require.NoError(t, store.SetProtection(t.Context(), key, true))

		got, err := store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{other.ID}, ids(got))
	})

	t.Run("Idempotent", func(t *testing.T) {
		store := factory(t)
		key := catalog.StageKey{Pipeline: "build", Stage: "compile"}

		require.NoError(t, store.SetProtection(t.Context(), key, true))
		require.NoError(t, store.SetProtection(t.Context(), key, true))
		list, err := store.ListProtections(t.Context())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, key, list[0].StageKey)
		assert.False(t, list[0].CreatedAt.IsZero())

		require.NoError(t, store.SetProtection(t.Context(), key, false))
		require.NoError(t, store.SetProtection(t.Context(), key, false))
		list, err = store.ListProtections(t.Context())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("UnprotectRestoresEligibility", func(t *testing.T) {
		store := factory(t)
		st := register(t, store, "build", 1, "compile", 1, at(1))
		key := st.Key()

		require.NoError(t, store.SetProtection(t.Context(), key, true))
		got, err := store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, store.SetProtection(t.Context(), key, false))
		got, err = store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{st.ID}, ids(got))
	})

	t.Run("QueueFlush", func(t *testing.T) {
		store := factory(t)
		st := register(t, store, "build", 1, "compile", 1, at(1))
		q := catalog.NewProtectionQueue(store)

		q.Submit(st.Key(), true)
		got, err := store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Len(t, got, 1, "unflushed protection must not apply")

		require.NoError(t, q.Flush(t.Context()))
		assert.Empty(t, q.Pending())
		got, err = store.OldestPurgeable(t.Context(), 10, false)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
