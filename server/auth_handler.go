package server

import (
	"encoding/json"
	"net/http"

	"beatforge/core/auth"
	"beatforge/logger"
)

// AuthTokenHandler exchanges the configured admin API key for a short-lived
// admin JWT. Session management proper lives outside this service.
func (h *APIHandler) AuthTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.cfg.AdminAPIKeyHash == "" {
		writeError(w, http.StatusForbidden, "admin access not configured")
		return
	}
	if !auth.CheckKeyHash(req.APIKey, h.cfg.AdminAPIKeyHash) {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	token, err := auth.GenerateToken(h.cfg.JWTSecret, "admin", true, h.cfg.JWTTTL)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
