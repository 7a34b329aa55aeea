package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beatforge/config"
	"beatforge/core/auth"
	"beatforge/core/catalog"
	"beatforge/core/download"
	"beatforge/model"
	"beatforge/repository"
	"beatforge/storage"
)

func newTestHandler(t *testing.T) (*APIHandler, http.Handler, *catalog.Service) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
		DownloadTTL: 30 * time.Minute,
	}
	svc := catalog.NewService(repository.NewMemoryBeatRepository(), nil, nil, nil)
	signer := storage.NewLocalSigner("http://localhost:8080/downloads", "dl-secret")
	issuer := download.NewIssuer(signer, cfg.DownloadTTL)
	h := NewAPIHandler(svc, issuer, cfg)
	return h, h.Router(), svc
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken("test-secret", "admin", true, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createReq(title string) map[string]any {
	return map[string]any{
		"title":           title,
		"genre":           "Trap",
		"bpm":             140,
		"wavPrice":        "19.99",
		"trackoutPrice":   "49.99",
		"unlimitedPrice":  "99.99",
		"previewAssetRef": "previews/x.mp3",
		"masterAssetRef":  "masters/x.wav",
	}
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	_, router, _ := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", "", createReq("x"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	nonAdmin, err := auth.GenerateToken("test-secret", "user-1", false, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/admin/beats", nonAdmin, createReq("x"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin token: status = %d, want 403", rec.Code)
	}
}

func TestCreateAndPublicGet(t *testing.T) {
	_, router, _ := newTestHandler(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, createReq("Night Drive"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created model.Beat
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !created.IsActive {
		t.Error("unscheduled beat should be active")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/beats/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public get status = %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	// Paid asset keys never serialize.
	if _, leaked := got["masterAssetRef"]; leaked {
		t.Error("masterAssetRef must not appear in responses")
	}
	if got["wavPrice"] != "19.99" {
		t.Errorf("wavPrice = %v, want exact string 19.99", got["wavPrice"])
	}
}

func TestFutureScheduledBeatHiddenPublicly(t *testing.T) {
	_, router, _ := newTestHandler(t)
	token := adminToken(t)

	body := createReq("Unreleased")
	body["scheduledReleaseAt"] = time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created model.Beat
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	if rec = doJSON(t, router, http.MethodGet, "/api/beats/"+created.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("public get of scheduled beat: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/beats", "", nil)
	var page model.BeatPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 {
		t.Errorf("public listing total = %d, want 0", page.Total)
	}

	// The admin listing still shows it.
	rec = doJSON(t, router, http.MethodGet, "/api/admin/beats", token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Errorf("admin listing total = %d, want 1", page.Total)
	}
}

func TestSweepEndpoint(t *testing.T) {
	_, router, svc := newTestHandler(t)
	token := adminToken(t)

	past := time.Now().Add(-time.Hour)
	clock := func() time.Time { return past }
	svc.WithClock(clock)

	body := createReq("Scheduled")
	body["scheduledReleaseAt"] = time.Now().UTC().Format(time.RFC3339)
	if rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, body); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	svc.WithClock(time.Now)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/sweep", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep status = %d", rec.Code)
	}
	var res map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res["activated"] != 1 {
		t.Errorf("activated = %d, want 1", res["activated"])
	}

	rec = doJSON(t, router, http.MethodPost, "/api/admin/sweep", token, nil)
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res["activated"] != 0 {
		t.Errorf("second sweep activated = %d, want 0", res["activated"])
	}
}

func TestUpdateScheduleTriState(t *testing.T) {
	_, router, _ := newTestHandler(t)
	token := adminToken(t)

	body := createReq("Tri-state")
	body["scheduledReleaseAt"] = time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, body)
	var created model.Beat
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	// Absent field leaves the schedule untouched.
	rec = doJSON(t, router, http.MethodPut, "/api/admin/beats/"+created.ID, token, map[string]any{"title": "Renamed"})
	var updated model.Beat
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.ScheduledReleaseAt == nil || updated.IsActive {
		t.Error("absent scheduledReleaseAt must not touch the schedule")
	}

	// Explicit null clears it and reactivates.
	rec = doJSON(t, router, http.MethodPut, "/api/admin/beats/"+created.ID, token, map[string]any{"scheduledReleaseAt": nil})
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.ScheduledReleaseAt != nil || !updated.IsActive {
		t.Error("null scheduledReleaseAt must clear the schedule and activate")
	}
}

func TestListFilterValidation(t *testing.T) {
	_, router, _ := newTestHandler(t)

	paths := []string{
		"/api/beats?bpmMin=fast",
		"/api/beats?priceMax=cheap",
		"/api/beats?hasStems=maybe",
		"/api/beats?bpmMin=160&bpmMax=120",
		"/api/beats?priceMin=-5",
	}
	for _, path := range paths {
		if rec := doJSON(t, router, http.MethodGet, path, "", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestOwnerScopedAdminListing(t *testing.T) {
	_, router, _ := newTestHandler(t)
	token := adminToken(t)

	mine := createReq("Mine")
	mine["ownerId"] = "producer-1"
	doJSON(t, router, http.MethodPost, "/api/admin/beats", token, mine)

	theirs := createReq("Theirs")
	theirs["ownerId"] = "producer-2"
	doJSON(t, router, http.MethodPost, "/api/admin/beats", token, theirs)

	rec := doJSON(t, router, http.MethodGet, "/api/admin/beats?ownerId=producer-1", token, nil)
	var page model.BeatPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Title != "Mine" {
		t.Errorf("owner-scoped listing = %+v, want only producer-1's beat", page)
	}

	// The public surface never owner-scopes: ownerId is ignored there.
	rec = doJSON(t, router, http.MethodGet, "/api/beats?ownerId=producer-1", "", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 {
		t.Errorf("public listing total = %d, want 2 (ownerId ignored)", page.Total)
	}
}

func TestIssueDownloadURLsEndpoint(t *testing.T) {
	_, router, _ := newTestHandler(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, createReq("Purchasable"))
	var created model.Beat
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	if rec = doJSON(t, router, http.MethodPost, "/api/beats/"+created.ID+"/download-urls", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated download-urls: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/beats/"+created.ID+"/download-urls", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download-urls status = %d, body %s", rec.Code, rec.Body.String())
	}
	var links download.Links
	if err := json.Unmarshal(rec.Body.Bytes(), &links); err != nil {
		t.Fatal(err)
	}
	if links.MasterURL == "" {
		t.Error("expected a master url")
	}
	if links.StemsURL != nil {
		t.Error("expected no stems url for a beat without stems")
	}
	remaining := time.Until(links.ExpiresAt)
	if remaining < 29*time.Minute || remaining > 31*time.Minute {
		t.Errorf("expiry %v from now, want about 30m", remaining)
	}

	// Deactivation does not revoke fulfillment access.
	if rec = doJSON(t, router, http.MethodDelete, "/api/admin/beats/"+created.ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d", rec.Code)
	}
	if rec = doJSON(t, router, http.MethodPost, "/api/beats/"+created.ID+"/download-urls", token, nil); rec.Code != http.StatusOK {
		t.Errorf("download-urls after deactivation: status = %d, want 200", rec.Code)
	}
}

func TestToggleActiveEndpoint(t *testing.T) {
	_, router, _ := newTestHandler(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, createReq("Toggle"))
	var created model.Beat
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	rec = doJSON(t, router, http.MethodPatch, "/api/admin/beats/"+created.ID+"/active", token, map[string]bool{"isActive": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}
	var toggled model.Beat
	if err := json.Unmarshal(rec.Body.Bytes(), &toggled); err != nil {
		t.Fatal(err)
	}
	if toggled.IsActive {
		t.Error("expected beat to be inactive after toggle")
	}

	if rec = doJSON(t, router, http.MethodGet, "/api/beats/"+created.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("public get of deactivated beat: status = %d, want 404", rec.Code)
	}
}

func TestCreateValidationFailsWith400(t *testing.T) {
	_, router, _ := newTestHandler(t)
	token := adminToken(t)

	body := createReq("Bad BPM")
	body["bpm"] = 20
	if rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, body); rec.Code != http.StatusBadRequest {
		t.Errorf("bpm=20: status = %d, want 400", rec.Code)
	}

	body = createReq("Negative price")
	body["wavPrice"] = "-1.00"
	if rec := doJSON(t, router, http.MethodPost, "/api/admin/beats", token, body); rec.Code != http.StatusBadRequest {
		t.Errorf("negative price: status = %d, want 400", rec.Code)
	}
}
