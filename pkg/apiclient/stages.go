package apiclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

// RegisterStageRequest describes a finished or running stage.
type RegisterStageRequest struct {
	Pipeline        string     `json:"pipeline"`
	PipelineCounter int        `json:"pipeline_counter"`
	Name            string     `json:"name"`
	Counter         int        `json:"counter"`
	Result          string     `json:"result,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Keep            bool       `json:"keep,omitempty"`
}

// ListStages returns catalogued stages matching f.
func (c *Client) ListStages(f catalog.StageFilter) ([]catalog.Stage, error) {
	q := url.Values{}
	if f.Pipeline != "" {
		q.Set("pipeline", f.Pipeline)
	}
	if f.Stage != "" {
		q.Set("stage", f.Stage)
	}
	if f.OnlyWithArtifacts {
		q.Set("with_artifacts", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprint(f.Limit))
	}
	return listResources[catalog.Stage](c, withQuery("/api/v1/stages", q))
}

// GetStage returns one stage by ID.
func (c *Client) GetStage(id string) (*catalog.Stage, error) {
	return getResource[catalog.Stage](c, "/api/v1/stages/"+url.PathEscape(id))
}

// RegisterStage records a stage and returns it with its assigned ID.
func (c *Client) RegisterStage(req RegisterStageRequest) (*catalog.Stage, error) {
	return createResource[catalog.Stage](c, "/api/v1/stages", req)
}

// SetKeep pins or unpins a single stage run.
func (c *Client) SetKeep(id string, keep bool) (*catalog.Stage, error) {
	var stage catalog.Stage
	body := map[string]bool{"keep": keep}
	if err := c.put("/api/v1/stages/"+url.PathEscape(id)+"/keep", body, &stage); err != nil {
		return nil, err
	}
	return &stage, nil
}
