package server

import (
	"context"
	"net/http"
	"strings"

	"beatforge/core/auth"
)

type contextKey string

const callerKey contextKey = "caller"

// Caller identifies an authenticated request.
type Caller struct {
	Subject string
	IsAdmin bool
}

// callerFrom returns the caller attached by authMiddleware, if any.
func callerFrom(ctx context.Context) *Caller {
	caller, _ := ctx.Value(callerKey).(*Caller)
	return caller
}

// corsMiddleware mirrors the storefront's CORS needs.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware requires a valid bearer token and attaches the caller.
func (h *APIHandler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.ParseToken(h.cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		caller := &Caller{Subject: claims.Subject, IsAdmin: claims.IsAdmin}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
	}
}

// adminMiddleware additionally requires the admin claim.
func (h *APIHandler) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r.Context())
		if caller == nil || !caller.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
