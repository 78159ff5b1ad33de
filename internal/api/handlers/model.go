package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/adaptplan/internal/bundle"
	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ModelHandler struct {
	svc      *service.ModelService
	planners *service.PlannerService
}

func NewModelHandler(svc *service.ModelService, planners *service.PlannerService) *ModelHandler {
	return &ModelHandler{svc: svc, planners: planners}
}

// Create accepts a model bundle as JSON.
func (h *ModelHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := bundle.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), bundle.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	def := b.Definition()
	if err := h.svc.Create(r.Context(), def); err != nil {
		writeServiceError(w, err, "failed to create model")
		return
	}

	writeJSON(w, http.StatusCreated, def.Model)
}

func (h *ModelHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get model")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.List(r.Context(), listLimit(r))
	if err != nil {
		writeServiceError(w, err, "failed to list models")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"models": models,
		"count":  len(models),
	})
}

// Export returns the stored model as a bundle that Create accepts.
func (h *ModelHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	def, err := h.svc.Load(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to export model")
		return
	}

	writeJSON(w, http.StatusOK, bundle.FromDefinition(def))
}

func (h *ModelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete model")
		return
	}
	h.planners.Invalidate(id)

	w.WriteHeader(http.StatusNoContent)
}
