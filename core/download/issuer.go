package download

import (
	"context"
	"errors"
	"time"

	"beatforge/model"
)

// Signer mints a time-limited URL for an opaque storage key. The storage or
// CDN layer validates the signature on its own; nothing is tracked here.
type Signer interface {
	Sign(ctx context.Context, key string, ttl time.Duration) (url string, expiresAt time.Time, err error)
}

// Links are the signed URLs issued for a purchased beat.
type Links struct {
	MasterURL string    `json:"masterUrl"`
	StemsURL  *string   `json:"stemsUrl,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issuer mints short-lived signed URLs for a beat's paid assets. It is
// stateless: URLs are self-expiring and never stored, so it is safe to call
// concurrently and repeatedly.
type Issuer struct {
	signer Signer
	ttl    time.Duration
}

// NewIssuer creates an Issuer with the given URL lifetime.
func NewIssuer(signer Signer, ttl time.Duration) *Issuer {
	return &Issuer{signer: signer, ttl: ttl}
}

// TTL returns the configured URL lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// IssueDownloadURLs signs the beat's master asset and, when present in
// either slot, its stems. Called only after the external order verification
// confirmed the purchase.
func (i *Issuer) IssueDownloadURLs(ctx context.Context, beat *model.Beat) (*Links, error) {
	if beat.MasterAssetRef == "" {
		return nil, errors.New("beat has no master asset")
	}

	masterURL, expiresAt, err := i.signer.Sign(ctx, beat.MasterAssetRef, i.ttl)
	if err != nil {
		return nil, err
	}

	links := &Links{MasterURL: masterURL, ExpiresAt: expiresAt}

	if stemsKey := stemsRef(beat); stemsKey != "" {
		stemsURL, _, err := i.signer.Sign(ctx, stemsKey, i.ttl)
		if err != nil {
			return nil, err
		}
		links.StemsURL = &stemsURL
	}
	return links, nil
}

// stemsRef picks the stems key, preferring the current slot over the legacy
// one.
func stemsRef(beat *model.Beat) string {
	if beat.StemsAssetRef != nil && *beat.StemsAssetRef != "" {
		return *beat.StemsAssetRef
	}
	if beat.LegacyStemsAssetRef != nil && *beat.LegacyStemsAssetRef != "" {
		return *beat.LegacyStemsAssetRef
	}
	return ""
}
