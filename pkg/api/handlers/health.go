package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck is one dependency probed by the readiness endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ComponentHealth is the readiness status of a single dependency.
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthHandler serves the unauthenticated probes.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a handler probing checks on readiness.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthyResponse(map[string]string{"service": "artifactguard"}))
}

// Readiness handles GET /health/ready. It returns 503 if any dependency
// fails its healthcheck.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make([]ComponentHealth, 0, len(h.checks))
	healthy := true
	for _, c := range h.checks {
		start := time.Now()
		err := c.Check(ctx)
		ch := ComponentHealth{Name: c.Name, Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			ch.Status = "unhealthy"
			ch.Error = err.Error()
			healthy = false
		}
		components = append(components, ch)
	}

	if !healthy {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse(components, "one or more components are unhealthy"))
		return
	}
	WriteJSONOK(w, healthyResponse(components))
}
