package purge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/artifactguard/pkg/apiclient"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

func TestStatusPairs(t *testing.T) {
	free := uint64(5 << 30)

	t.Run("Enabled", func(t *testing.T) {
		pairs := statusPairs(&apiclient.PurgeStatus{
			State:     "idle",
			FreeBytes: &free,
			Policy:    apiclient.PolicyView{Enabled: true, StartThresholdBytes: 10 << 30, TargetThresholdBytes: 20 << 30},
			LastRun:   &catalog.RunRecord{Outcome: "reclaimed", UnitsPurged: 3, FinishedAt: time.Now()},
		})

		assert.Contains(t, pairs, [2]string{"Free space", "5.0 GiB"})
		assert.Contains(t, pairs, [2]string{"Start below", "10 GiB"})
		assert.Contains(t, pairs, [2]string{"Last purged", "3 stages, 0 failures"})
	})

	t.Run("DisabledNeverRun", func(t *testing.T) {
		pairs := statusPairs(&apiclient.PurgeStatus{State: "idle"})

		assert.Contains(t, pairs, [2]string{"Free space", "not measured yet"})
		assert.Contains(t, pairs, [2]string{"Policy", "disabled"})
		assert.Contains(t, pairs, [2]string{"Last run", "never"})
	})
}

func TestRunListRows(t *testing.T) {
	runs := RunList{{Outcome: "exhausted", UnitsPurged: 2, Failures: 1, Passes: 3, SpaceBefore: 1 << 30, SpaceAfter: 2 << 30}}

	rows := runs.Rows()
	assert.Len(t, rows, 1)
	assert.Len(t, rows[0], len(runs.Headers()))
	assert.Equal(t, []string{"exhausted", "2", "1", "3", "1.0 GiB", "2.0 GiB"}, rows[0][1:])
}
