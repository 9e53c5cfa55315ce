package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/monitor"
)

// SpaceChecker runs an immediate free-space check.
type SpaceChecker interface {
	Check(ctx context.Context) (monitor.Result, error)
}

// RegisterStageRequest is the body of POST /api/v1/stages.
type RegisterStageRequest struct {
	Pipeline        string     `json:"pipeline"`
	PipelineCounter int        `json:"pipeline_counter"`
	Name            string     `json:"name"`
	Counter         int        `json:"counter"`
	Result          string     `json:"result,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Keep            bool       `json:"keep,omitempty"`
}

// KeepRequest is the body of PUT /api/v1/stages/{id}/keep.
type KeepRequest struct {
	Keep bool `json:"keep"`
}

// StagesHandler serves the stage catalog routes.
type StagesHandler struct {
	store   catalog.Store
	checker SpaceChecker
}

// NewStagesHandler creates a stages handler. checker may be nil.
func NewStagesHandler(store catalog.Store, checker SpaceChecker) *StagesHandler {
	return &StagesHandler{store: store, checker: checker}
}

// List handles GET /api/v1/stages?pipeline=&stage=&with_artifacts=&limit=.
func (h *StagesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 0)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := catalog.StageFilter{
		Pipeline:          q.Get("pipeline"),
		Stage:             q.Get("stage"),
		OnlyWithArtifacts: q.Get("with_artifacts") == "true",
		Limit:             limit,
	}

	stages, err := h.store.ListStages(r.Context(), filter)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list stages", logger.Err(err))
		InternalServerError(w, "Failed to list stages")
		return
	}
	if stages == nil {
		stages = []catalog.Stage{}
	}
	WriteJSONOK(w, stages)
}

// Register handles POST /api/v1/stages. A new stage produces artifacts, so
// the handler runs a free-space check once the stage is recorded.
func (h *StagesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterStageRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	stage := &catalog.Stage{
		Pipeline:        req.Pipeline,
		PipelineCounter: req.PipelineCounter,
		Name:            req.Name,
		Counter:         req.Counter,
		Result:          req.Result,
		CompletedAt:     req.CompletedAt,
		Keep:            req.Keep,
	}
	if stage.Result == "" {
		stage.Result = catalog.ResultUnknown
	}

	if err := h.store.RegisterStage(r.Context(), stage); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidStage):
			BadRequest(w, err.Error())
		case errors.Is(err, catalog.ErrDuplicateStage):
			Conflict(w, "Stage "+stage.Identifier()+" is already registered")
		default:
			logger.ErrorCtx(r.Context(), "Failed to register stage", logger.Err(err))
			InternalServerError(w, "Failed to register stage")
		}
		return
	}

	logger.InfoCtx(r.Context(), "Stage registered", logger.StageID(stage.ID), "identifier", stage.Identifier())

	if h.checker != nil {
		if _, err := h.checker.Check(r.Context()); err != nil {
			logger.WarnCtx(r.Context(), "Free space check after registration failed", logger.Err(err))
		}
	}

	WriteJSONCreated(w, stage)
}

// Get handles GET /api/v1/stages/{id}.
func (h *StagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	stage, err := h.store.GetStage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	WriteJSONOK(w, stage)
}

// SetKeep handles PUT /api/v1/stages/{id}/keep.
func (h *StagesHandler) SetKeep(w http.ResponseWriter, r *http.Request) {
	var req KeepRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.SetKeep(r.Context(), id, req.Keep); err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	stage, err := h.store.GetStage(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	WriteJSONOK(w, stage)
}

func (h *StagesHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrStageNotFound) {
		NotFound(w, "Stage not found")
		return
	}
	logger.ErrorCtx(r.Context(), "Stage lookup failed", logger.Err(err))
	InternalServerError(w, "Stage lookup failed")
}
