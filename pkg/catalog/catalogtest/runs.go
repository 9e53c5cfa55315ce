package catalogtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

func runHistoryTests(t *testing.T, factory StoreFactory) {
	t.Run("MostRecentFirst", func(t *testing.T) {
		store := factory(t)
		for i, id := range []string{"run-1", "run-2", "run-3"} {
			rec := catalog.RunRecord{
				ID:          id,
				StartedAt:   base.Add(time.Duration(i) * time.Hour),
				FinishedAt:  base.Add(time.Duration(i)*time.Hour + time.Minute),
				Outcome:     "reclaimed",
				UnitsPurged: uint32(i + 1),
				Passes:      1,
				SpaceBefore: 100,
				SpaceAfter:  200,
			}
			require.NoError(t, store.RecordRun(t.Context(), rec))
		}

		runs, err := store.ListRuns(t.Context(), 0)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "run-3", runs[0].ID)
		assert.Equal(t, "run-1", runs[2].ID)
		assert.Equal(t, uint32(3), runs[0].UnitsPurged)
		assert.Equal(t, uint64(200), runs[0].SpaceAfter)
		assert.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Hour)))

		limited, err := store.ListRuns(t.Context(), 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, "run-2", limited[1].ID)
	})

	t.Run("ErrorAndExhaustionKept", func(t *testing.T) {
		store := factory(t)
		rec := catalog.RunRecord{
			ID:        "run-x",
			StartedAt: base,
			Outcome:   "failed",
			Exhausted: true,
			Error:     "probe: disk gone",
		}
		require.NoError(t, store.RecordRun(t.Context(), rec))

		runs, err := store.ListRuns(t.Context(), 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.True(t, runs[0].Exhausted)
		assert.Equal(t, "probe: disk gone", runs[0].Error)
		assert.Equal(t, "failed", runs[0].Outcome)
	})

	t.Run("Empty", func(t *testing.T) {
		store := factory(t)
		runs, err := store.ListRuns(t.Context(), 10)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}
