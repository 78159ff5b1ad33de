package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/adaptplan/internal/bundle"
	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxBodyBytes     = 32 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto HTTP statuses. Unknown errors
// become 500 with the fallback message. Predictor failures carry upstream
// response bodies and are reported with a fixed message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrModelNotFound),
		errors.Is(err, service.ErrAdaptationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidModel),
		errors.Is(err, service.ErrInvalidRow),
		errors.Is(err, bundle.ErrInvalidBundle):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrModelConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPredictorFailure):
		writeError(w, http.StatusBadGateway, "confidence predictor failed")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "adaptation search timed out")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// listLimit reads ?limit=, falling back to the default for missing or
// malformed values.
func listLimit(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			if l > maxListLimit {
				return maxListLimit
			}
			return l
		}
	}
	return defaultListLimit
}
