// Package catalogtest holds the behaviour every catalog.Store backend must
// share.
package catalogtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

// StoreFactory creates a fresh, empty store for each test. It receives
// *testing.T so it can use t.TempDir() and t.Cleanup().
type StoreFactory func(t *testing.T) catalog.Store

// RunConformanceSuite runs the full suite against the provided factory.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("Stages", func(t *testing.T) {
		runStageTests(t, factory)
	})

	t.Run("Eligibility", func(t *testing.T) {
		runEligibilityTests(t, factory)
	})

	t.Run("Protections", func(t *testing.T) {
		runProtectionTests(t, factory)
	})

	t.Run("Runs", func(t *testing.T) {
		runHistoryTests(t, factory)
	})
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// at returns base shifted by n minutes.
func at(n int) *time.Time {
	t := base.Add(time.Duration(n) * time.Minute)
	return &t
}

// register stores a passed, completed stage and returns it with its ID.
func register(t *testing.T, store catalog.Store, pipeline string, pc int, name string, sc int, completed *time.Time) catalog.Stage {
	t.Helper()

	st := catalog.Stage{
		Pipeline:        pipeline,
		PipelineCounter: pc,
		Name:            name,
		Counter:         sc,
		Result:          catalog.ResultPassed,
		CompletedAt:     completed,
		CreatedAt:       base.Add(time.Duration(pc*100+sc) * time.Second),
	}
	require.NoError(t, store.RegisterStage(t.Context(), &st), "RegisterStage(%s)", st.Identifier())
	require.NotEmpty(t, st.ID)
	return st
}

func ids(stages []catalog.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.ID
	}
	return out
}
