package apiclient

import (
	"fmt"
	"net/url"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

// PolicyView is the purge policy as reported by the server.
type PolicyView struct {
	Enabled              bool   `json:"enabled"`
	StartThresholdBytes  uint64 `json:"start_threshold_bytes"`
	TargetThresholdBytes uint64 `json:"target_threshold_bytes"`
}

// PurgeStatus is the engine state returned by GET /api/v1/purge.
type PurgeStatus struct {
	State      string             `json:"state"`
	Policy     PolicyView         `json:"policy"`
	LimitBytes *uint64            `json:"limit_bytes,omitempty"`
	FreeBytes  *uint64            `json:"free_bytes,omitempty"`
	LastRun    *catalog.RunRecord `json:"last_run,omitempty"`
}

// PurgeStatus returns the engine state.
func (c *Client) PurgeStatus() (*PurgeStatus, error) {
	return getResource[PurgeStatus](c, "/api/v1/purge")
}

// TriggerPurge requests a purge run. It returns false when the request was
// coalesced into an already pending run.
func (c *Client) TriggerPurge() (bool, error) {
	var resp struct {
		Accepted bool `json:"accepted"`
	}
	if err := c.post("/api/v1/purge/trigger", nil, &resp); err != nil {
		return false, err
	}
	return resp.Accepted, nil
}

// ListRuns returns up to limit recent purge runs, newest first.
func (c *Client) ListRuns(limit int) ([]catalog.RunRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return listResources[catalog.RunRecord](c, withQuery("/api/v1/purge/runs", q))
}

// Health returns nil when the server reports ready.
func (c *Client) Health() error {
	return c.get("/health/ready", nil)
}
