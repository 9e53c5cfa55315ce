package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

// ProtectionQueue buffers protection changes until the next flush.
type ProtectionQueue interface {
	Submit(key catalog.StageKey, protected bool)
	Flush(ctx context.Context) error
}

// ProtectionLister lists persisted protections.
type ProtectionLister interface {
	ListProtections(ctx context.Context) ([]catalog.Protection, error)
}

// ProtectionChangeResponse reports whether a change reached the catalog.
type ProtectionChangeResponse struct {
	catalog.StageKey
	Protected bool `json:"protected"`

	// Pending is set when the change is queued and will be applied by the
	// next purge run's flush.
	Pending bool `json:"pending"`
}

// ProtectionsHandler serves the protection routes.
type ProtectionsHandler struct {
	queue ProtectionQueue
	store ProtectionLister
}

// NewProtectionsHandler creates a protections handler.
func NewProtectionsHandler(queue ProtectionQueue, store ProtectionLister) *ProtectionsHandler {
	return &ProtectionsHandler{queue: queue, store: store}
}

// List handles GET /api/v1/protections.
func (h *ProtectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	prots, err := h.store.ListProtections(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list protections", logger.Err(err))
		InternalServerError(w, "Failed to list protections")
		return
	}
	if prots == nil {
		prots = []catalog.Protection{}
	}
	WriteJSONOK(w, prots)
}

// Add handles PUT /api/v1/protections/{pipeline}/{stage}.
func (h *ProtectionsHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, true)
}

// Remove handles DELETE /api/v1/protections/{pipeline}/{stage}.
func (h *ProtectionsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, false)
}

// change queues the change and flushes it right away. A failed flush leaves
// the change queued; the purge engine flushes before each pass.
func (h *ProtectionsHandler) change(w http.ResponseWriter, r *http.Request, protected bool) {
	key := catalog.StageKey{
		Pipeline: chi.URLParam(r, "pipeline"),
		Stage:    chi.URLParam(r, "stage"),
	}
	if key.Pipeline == "" || key.Stage == "" {
		BadRequest(w, "pipeline and stage are required")
		return
	}

	h.queue.Submit(key, protected)
	resp := ProtectionChangeResponse{StageKey: key, Protected: protected}
	if err := h.queue.Flush(r.Context()); err != nil {
		logger.WarnCtx(r.Context(), "Protection change queued, flush failed",
			logger.KeyPipeline, key.Pipeline, logger.KeyStage, key.Stage, logger.Err(err))
		resp.Pending = true
		WriteJSON(w, http.StatusAccepted, resp)
		return
	}

	logger.InfoCtx(r.Context(), "Protection updated",
		logger.KeyPipeline, key.Pipeline, logger.KeyStage, key.Stage, "protected", protected)
	WriteJSONOK(w, resp)
}
