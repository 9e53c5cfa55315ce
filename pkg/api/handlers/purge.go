package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/monitor"
	"github.com/marmos91/artifactguard/pkg/purge"
)

// Engine is the part of the purge engine the API reads and drives.
type Engine interface {
	State() purge.State
	CurrentPolicy() purge.Policy
	CurrentLimitBytes() uint64
	LastReport() (purge.Report, bool)
	Trigger() bool
}

// SpaceReader exposes the monitor's latest reading.
type SpaceReader interface {
	Last() monitor.Result
}

// RunLister lists persisted purge runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]catalog.RunRecord, error)
}

// PolicyView is the JSON form of purge.Policy.
type PolicyView struct {
	Enabled              bool   `json:"enabled"`
	StartThresholdBytes  uint64 `json:"start_threshold_bytes"`
	TargetThresholdBytes uint64 `json:"target_threshold_bytes"`
}

// PurgeStatus is returned by GET /api/v1/purge.
type PurgeStatus struct {
	State  string     `json:"state"`
	Policy PolicyView `json:"policy"`

	// LimitBytes is omitted when purging is disabled.
	LimitBytes *uint64 `json:"limit_bytes,omitempty"`

	// FreeBytes is the monitor's latest reading, omitted before the first
	// check.
	FreeBytes *uint64 `json:"free_bytes,omitempty"`

	LastRun *catalog.RunRecord `json:"last_run,omitempty"`
}

// TriggerResponse is returned by POST /api/v1/purge/trigger.
type TriggerResponse struct {
	// Accepted is false when the trigger coalesced into a pending run or the
	// engine is stopped.
	Accepted bool `json:"accepted"`
}

// PurgeHandler serves the purge routes.
type PurgeHandler struct {
	engine Engine
	space  SpaceReader
	runs   RunLister
}

// NewPurgeHandler creates a purge handler. space may be nil.
func NewPurgeHandler(engine Engine, space SpaceReader, runs RunLister) *PurgeHandler {
	return &PurgeHandler{engine: engine, space: space, runs: runs}
}

// Status handles GET /api/v1/purge.
func (h *PurgeHandler) Status(w http.ResponseWriter, r *http.Request) {
	p := h.engine.CurrentPolicy()
	status := PurgeStatus{
		State: h.engine.State().String(),
		Policy: PolicyView{
			Enabled:              p.Enabled,
			StartThresholdBytes:  p.StartThresholdBytes,
			TargetThresholdBytes: p.TargetThresholdBytes,
		},
	}

	if limit := h.engine.CurrentLimitBytes(); limit != purge.Unbounded {
		status.LimitBytes = &limit
	}
	if h.space != nil {
		if last := h.space.Last(); !last.CheckedAt.IsZero() {
			free := last.FreeBytes
			status.FreeBytes = &free
		}
	}
	if rep, ok := h.engine.LastReport(); ok {
		rec := catalog.RunRecordFromReport(rep)
		status.LastRun = &rec
	}

	WriteJSONOK(w, status)
}

// Trigger handles POST /api/v1/purge/trigger. It requests a run regardless
// of free space; the engine still honours a disabled policy.
func (h *PurgeHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	accepted := h.engine.Trigger()
	logger.InfoCtx(r.Context(), "Purge trigger requested via API", "accepted", accepted)
	WriteJSON(w, http.StatusAccepted, TriggerResponse{Accepted: accepted})
}

// Runs handles GET /api/v1/purge/runs?limit=N.
func (h *PurgeHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 20)
	if !ok {
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list purge runs", logger.Err(err))
		InternalServerError(w, "Failed to list purge runs")
		return
	}
	if runs == nil {
		runs = []catalog.RunRecord{}
	}
	WriteJSONOK(w, runs)
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		BadRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
