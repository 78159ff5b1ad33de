package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AdaptationHandler struct {
	svc      *service.PlannerService
	validate *validator.Validate
}

func NewAdaptationHandler(svc *service.PlannerService) *AdaptationHandler {
	return &AdaptationHandler{svc: svc, validate: validator.New()}
}

type planRequest struct {
	Row []float64 `json:"row" validate:"required,min=1"`
}

// Create runs the planner of the model for one row.
func (h *AdaptationHandler) Create(w http.ResponseWriter, r *http.Request) {
	modelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	var req planRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "row is required")
		return
	}

	a, err := h.svc.Plan(r.Context(), modelID, domain.FeatureVector(req.Row))
	if err != nil {
		writeServiceError(w, err, "failed to find adaptation")
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

func (h *AdaptationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid adaptation id")
		return
	}

	a, err := h.svc.GetAdaptation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get adaptation")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AdaptationHandler) ListByModel(w http.ResponseWriter, r *http.Request) {
	modelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	adaptations, err := h.svc.ListAdaptations(r.Context(), modelID, listLimit(r))
	if err != nil {
		writeServiceError(w, err, "failed to list adaptations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"adaptations": adaptations,
		"count":       len(adaptations),
	})
}
