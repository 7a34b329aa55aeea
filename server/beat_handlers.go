package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"beatforge/config"
	"beatforge/core/catalog"
	"beatforge/core/download"
	"beatforge/model"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// APIHandler serves the storefront and admin API.
type APIHandler struct {
	svc    *catalog.Service
	issuer *download.Issuer
	cfg    *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(svc *catalog.Service, issuer *download.Issuer, cfg *config.Config) *APIHandler {
	return &APIHandler{svc: svc, issuer: issuer, cfg: cfg}
}

// Router builds the route table.
func (h *APIHandler) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/auth/token", h.AuthTokenHandler).Methods(http.MethodPost)

	// Public storefront. Authenticated non-admin callers get the same
	// public scope: ownership never narrows a non-privileged listing.
	router.HandleFunc("/api/beats", h.PublicListHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/beats/{id}", h.PublicGetHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/beats/{id}/reviews", h.ListReviewsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/beats/{id}/reviews", h.authMiddleware(h.AddReviewHandler)).Methods(http.MethodPost)

	// Fulfillment: called after the external order verification confirmed
	// the purchase.
	router.HandleFunc("/api/beats/{id}/download-urls", h.authMiddleware(h.IssueDownloadsHandler)).Methods(http.MethodPost)

	// Admin back office.
	router.HandleFunc("/api/admin/beats", h.adminMiddleware(h.AdminListHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/beats", h.adminMiddleware(h.CreateBeatHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/beats/{id}", h.adminMiddleware(h.UpdateBeatHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/admin/beats/{id}", h.adminMiddleware(h.DeactivateBeatHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/beats/{id}/active", h.adminMiddleware(h.ToggleActiveHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/admin/sweep", h.adminMiddleware(h.SweepHandler)).Methods(http.MethodPost)

	return router
}

// PublicListHandler lists publicly visible beats.
func (h *APIHandler) PublicListHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	q.Scope = model.ScopePublic

	page, err := h.svc.ListBeats(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PublicGetHandler returns one publicly visible beat.
func (h *APIHandler) PublicGetHandler(w http.ResponseWriter, r *http.Request) {
	beat, err := h.svc.GetBeat(r.Context(), mux.Vars(r)["id"], model.ScopePublic)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, beat)
}

// AdminListHandler lists beats without the public visibility clause. An
// ownerId query parameter narrows to one owner; this owner scoping exists
// only on the privileged surface.
func (h *APIHandler) AdminListHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ownerID := r.URL.Query().Get("ownerId"); ownerID != "" {
		q.Scope = model.ScopeOwner
		q.OwnerID = ownerID
	} else {
		q.Scope = model.ScopeAdminAll
	}

	page, err := h.svc.ListBeats(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type beatCreateRequest struct {
	OwnerID            *string         `json:"ownerId"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Genre              string          `json:"genre"`
	Key                string          `json:"key"`
	Mode               string          `json:"mode"`
	Tags               []string        `json:"tags"`
	BPM                int             `json:"bpm"`
	DurationLabel      string          `json:"durationLabel"`
	WavPrice           decimal.Decimal `json:"wavPrice"`
	TrackoutPrice      decimal.Decimal `json:"trackoutPrice"`
	UnlimitedPrice     decimal.Decimal `json:"unlimitedPrice"`
	IsExclusive        bool            `json:"isExclusive"`
	Featured           bool            `json:"featured"`
	ScheduledReleaseAt *string         `json:"scheduledReleaseAt"`
	PreviewAssetRef    string          `json:"previewAssetRef"`
	MasterAssetRef     string          `json:"masterAssetRef"`
	StemsAssetRef      *string         `json:"stemsAssetRef"`
	ArtworkAssetRef    *string         `json:"artworkAssetRef"`
}

// CreateBeatHandler creates a beat. The response returns immediately after
// the catalog write; product sync runs in the background.
func (h *APIHandler) CreateBeatHandler(w http.ResponseWriter, r *http.Request) {
	var req beatCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := catalog.CreateBeatInput{
		OwnerID:         req.OwnerID,
		Title:           req.Title,
		Description:     req.Description,
		Genre:           req.Genre,
		Key:             req.Key,
		Mode:            req.Mode,
		Tags:            req.Tags,
		BPM:             req.BPM,
		DurationLabel:   req.DurationLabel,
		WavPrice:        req.WavPrice,
		TrackoutPrice:   req.TrackoutPrice,
		UnlimitedPrice:  req.UnlimitedPrice,
		IsExclusive:     req.IsExclusive,
		Featured:        req.Featured,
		PreviewAssetRef: req.PreviewAssetRef,
		MasterAssetRef:  req.MasterAssetRef,
		StemsAssetRef:   req.StemsAssetRef,
		ArtworkAssetRef: req.ArtworkAssetRef,
	}
	if req.ScheduledReleaseAt != nil {
		input.ScheduledReleaseAt = *req.ScheduledReleaseAt
	}

	beat, err := h.svc.CreateBeat(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, beat)
}

type beatUpdateRequest struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Genre          *string          `json:"genre"`
	Key            *string          `json:"key"`
	Mode           *string          `json:"mode"`
	Tags           *[]string        `json:"tags"`
	BPM            *int             `json:"bpm"`
	DurationLabel  *string          `json:"durationLabel"`
	WavPrice       *decimal.Decimal `json:"wavPrice"`
	TrackoutPrice  *decimal.Decimal `json:"trackoutPrice"`
	UnlimitedPrice *decimal.Decimal `json:"unlimitedPrice"`
	IsExclusive    *bool            `json:"isExclusive"`
	Featured       *bool            `json:"featured"`
	// RawMessage keeps "absent", "null" and a value distinguishable:
	// null clears the schedule, absent leaves it untouched.
	ScheduledReleaseAt json.RawMessage `json:"scheduledReleaseAt"`
	PreviewAssetRef    *string         `json:"previewAssetRef"`
	MasterAssetRef     *string         `json:"masterAssetRef"`
	StemsAssetRef      *string         `json:"stemsAssetRef"`
	ArtworkAssetRef    *string         `json:"artworkAssetRef"`
}

// UpdateBeatHandler applies a partial update. An ownerId query parameter
// owner-scopes the write; mismatches read as not found.
func (h *APIHandler) UpdateBeatHandler(w http.ResponseWriter, r *http.Request) {
	var req beatUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := catalog.BeatPatch{
		Title:           req.Title,
		Description:     req.Description,
		Genre:           req.Genre,
		Key:             req.Key,
		Mode:            req.Mode,
		Tags:            req.Tags,
		BPM:             req.BPM,
		DurationLabel:   req.DurationLabel,
		WavPrice:        req.WavPrice,
		TrackoutPrice:   req.TrackoutPrice,
		UnlimitedPrice:  req.UnlimitedPrice,
		IsExclusive:     req.IsExclusive,
		Featured:        req.Featured,
		PreviewAssetRef: req.PreviewAssetRef,
		MasterAssetRef:  req.MasterAssetRef,
		StemsAssetRef:   req.StemsAssetRef,
		ArtworkAssetRef: req.ArtworkAssetRef,
	}

	if len(req.ScheduledReleaseAt) > 0 {
		patch.ScheduleSet = true
		if string(req.ScheduledReleaseAt) != "null" {
			var raw string
			if err := json.Unmarshal(req.ScheduledReleaseAt, &raw); err != nil {
				writeError(w, http.StatusBadRequest, "scheduledReleaseAt must be a string or null")
				return
			}
			patch.ScheduleRaw = raw
		}
	}

	var ownerID *string
	if v := r.URL.Query().Get("ownerId"); v != "" {
		ownerID = &v
	}

	beat, err := h.svc.UpdateBeat(r.Context(), mux.Vars(r)["id"], patch, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, beat)
}

// DeactivateBeatHandler soft-deactivates a beat.
func (h *APIHandler) DeactivateBeatHandler(w http.ResponseWriter, r *http.Request) {
	var ownerID *string
	if v := r.URL.Query().Get("ownerId"); v != "" {
		ownerID = &v
	}
	if err := h.svc.DeactivateBeat(r.Context(), mux.Vars(r)["id"], ownerID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

// ToggleActiveHandler sets the stored visibility flag directly.
func (h *APIHandler) ToggleActiveHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	beat, err := h.svc.ToggleActive(r.Context(), mux.Vars(r)["id"], req.IsActive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, beat)
}

// SweepHandler triggers the release sweep on demand.
func (h *APIHandler) SweepHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.ActivateScheduledBeats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"activated": count})
}

// IssueDownloadsHandler mints the signed download URLs for a purchased beat.
// Order verification happened upstream; visibility is not re-checked since a
// buyer keeps access to a beat that was later deactivated.
func (h *APIHandler) IssueDownloadsHandler(w http.ResponseWriter, r *http.Request) {
	beat, err := h.svc.GetBeat(r.Context(), mux.Vars(r)["id"], model.ScopeAdminAll)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	links, err := h.issuer.IssueDownloadURLs(r.Context(), beat)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// AddReviewHandler records a review from the authenticated caller.
func (h *APIHandler) AddReviewHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stars   int    `json:"stars"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	caller := callerFrom(r.Context())
	review, err := h.svc.AddReview(r.Context(), mux.Vars(r)["id"], caller.Subject, req.Stars, req.Comment)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// ListReviewsHandler returns recent reviews for a beat.
func (h *APIHandler) ListReviewsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reviews, err := h.svc.ListReviews(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// parseListQuery reads filters, sort and pagination from the query string.
func parseListQuery(r *http.Request) (model.ListQuery, error) {
	values := r.URL.Query()
	q := model.ListQuery{Sort: model.ParseSortOption(values.Get("sort"))}

	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.Limit, _ = strconv.Atoi(values.Get("limit"))

	f := &q.Filter
	f.Genre = values.Get("genre")
	f.Key = values.Get("key")
	f.Search = values.Get("search")

	var err error
	if f.BPMMin, err = parseIntParam(values.Get("bpmMin"), "bpmMin"); err != nil {
		return q, err
	}
	if f.BPMMax, err = parseIntParam(values.Get("bpmMax"), "bpmMax"); err != nil {
		return q, err
	}
	if f.PriceMin, err = parseDecimalParam(values.Get("priceMin"), "priceMin"); err != nil {
		return q, err
	}
	if f.PriceMax, err = parseDecimalParam(values.Get("priceMax"), "priceMax"); err != nil {
		return q, err
	}
	if f.IsExclusive, err = parseBoolParam(values.Get("isExclusive"), "isExclusive"); err != nil {
		return q, err
	}
	if f.Featured, err = parseBoolParam(values.Get("featured"), "featured"); err != nil {
		return q, err
	}
	if f.HasStems, err = parseBoolParam(values.Get("hasStems"), "hasStems"); err != nil {
		return q, err
	}
	return q, nil
}

func parseIntParam(raw, field string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &catalog.ValidationError{Field: field, Reason: "must be an integer"}
	}
	return &v, nil
}

func parseDecimalParam(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &catalog.ValidationError{Field: field, Reason: "must be a decimal amount"}
	}
	return &v, nil
}

func parseBoolParam(raw, field string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &catalog.ValidationError{Field: field, Reason: "must be a boolean"}
	}
	return &v, nil
}
