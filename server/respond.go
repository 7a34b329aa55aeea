package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"beatforge/core/catalog"
	"beatforge/logger"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps catalog errors onto HTTP statuses. Validation
// failures are 400, the opaque not-found-or-denied is 404, anything else is
// a persistence failure and surfaces as 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case catalog.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "beat not found")
	default:
		logger.Error("request failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
