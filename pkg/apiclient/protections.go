package apiclient

import (
	"net/url"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

// ProtectionChange is the server's answer to a protection update.
type ProtectionChange struct {
	Pipeline  string `json:"pipeline"`
	Stage     string `json:"stage"`
	Protected bool   `json:"protected"`

	// Pending is set when the change is queued for the next purge run.
	Pending bool `json:"pending"`
}

// ListProtections returns every protected pipeline/stage pair.
func (c *Client) ListProtections() ([]catalog.Protection, error) {
	return listResources[catalog.Protection](c, "/api/v1/protections")
}

// Protect excludes every run of pipeline/stage from purging.
func (c *Client) Protect(pipeline, stage string) (*ProtectionChange, error) {
	var resp ProtectionChange
	if err := c.put(protectionPath(pipeline, stage), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unprotect removes a protection.
func (c *Client) Unprotect(pipeline, stage string) (*ProtectionChange, error) {
	var resp ProtectionChange
	if err := c.delete(protectionPath(pipeline, stage), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func protectionPath(pipeline, stage string) string {
	return "/api/v1/protections/" + url.PathEscape(pipeline) + "/" + url.PathEscape(stage)
}
