package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"beatforge/core/auth"
)

func TestAuthTokenExchange(t *testing.T) {
	h, router, _ := newTestHandler(t)
	hash, err := auth.HashKey("the-admin-key")
	if err != nil {
		t.Fatal(err)
	}
	h.cfg.AdminAPIKeyHash = hash

	rec := doJSON(t, router, http.MethodPost, "/api/auth/token", "", map[string]string{"apiKey": "the-admin-key"})
	if rec.Code != http.StatusOK {
		t.Fatalf("token exchange status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}

	claims, err := auth.ParseToken("test-secret", res["token"])
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if !claims.IsAdmin {
		t.Error("expected admin claim on issued token")
	}

	// The issued token opens the admin surface.
	if rec = doJSON(t, router, http.MethodGet, "/api/admin/beats", res["token"], nil); rec.Code != http.StatusOK {
		t.Errorf("admin listing with issued token: status = %d, want 200", rec.Code)
	}
}

func TestAuthTokenWrongKey(t *testing.T) {
	h, router, _ := newTestHandler(t)
	hash, err := auth.HashKey("the-admin-key")
	if err != nil {
		t.Fatal(err)
	}
	h.cfg.AdminAPIKeyHash = hash

	rec := doJSON(t, router, http.MethodPost, "/api/auth/token", "", map[string]string{"apiKey": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", rec.Code)
	}
}

func TestAuthTokenUnconfigured(t *testing.T) {
	_, router, _ := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/token", "", map[string]string{"apiKey": "anything"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("unconfigured status = %d, want 403", rec.Code)
	}
}
