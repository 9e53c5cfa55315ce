package stages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

func TestParseCompletion(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := parseCompletion(true, "", clock)
	require.NoError(t, err)
	assert.Equal(t, clock, *got)

	got, err = parseCompletion(false, "2024-04-30T08:00:00Z", clock)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC), *got)

	got, err = parseCompletion(false, "", clock)
	require.NoError(t, err)
	assert.Nil(t, got, "no flag means still running")

	_, err = parseCompletion(false, "yesterday", clock)
	assert.Error(t, err)
}

func TestStageListRows(t *testing.T) {
	done := time.Now().Add(-time.Hour)
	stages := StageList{
		{ID: "a", Pipeline: "build", PipelineCounter: 7, Name: "test", Counter: 2, Result: catalog.ResultPassed, CompletedAt: &done},
		{ID: "b", Pipeline: "build", PipelineCounter: 8, Name: "test", Counter: 1, Keep: true},
	}

	rows := stages.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "build/7/test/2", rows[0][1])
	assert.Equal(t, "present", rows[0][4])
	assert.Equal(t, "running", rows[1][3])
	assert.Equal(t, catalog.ResultUnknown, rows[1][2])
	assert.Equal(t, "yes", rows[1][5])
}
