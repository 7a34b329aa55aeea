package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LicenseTier is one of the three fixed pricing/rights levels for a beat.
type LicenseTier string

const (
	TierWAV       LicenseTier = "wav"
	TierTrackout  LicenseTier = "trackout"
	TierUnlimited LicenseTier = "unlimited"
)

// Tiers returns all license tiers in display order.
func Tiers() []LicenseTier {
	return []LicenseTier{TierWAV, TierTrackout, TierUnlimited}
}

// SyncStatus records the state of the external product sync for a beat.
// "pending" means sync was never attempted or has not finished; "failed"
// means it was attempted and gave up. The two are kept distinct so failed
// beats can be retried later.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Beat represents a licensable beat in the catalog.
//
// Prices are fixed-point decimals, never binary floats, so amounts like
// 19.99 compare and round-trip exactly. Asset refs are opaque storage keys;
// master and stems are only ever reachable through signed URLs.
type Beat struct {
	ID            string   `json:"id"`
	OwnerID       *string  `json:"ownerId,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Genre         string   `json:"genre"`
	Key           string   `json:"key"`
	Mode          string   `json:"mode"`
	Tags          []string `json:"tags"`
	BPM           int      `json:"bpm"`
	DurationLabel string   `json:"durationLabel"`

	WavPrice       decimal.Decimal `json:"wavPrice"`
	TrackoutPrice  decimal.Decimal `json:"trackoutPrice"`
	UnlimitedPrice decimal.Decimal `json:"unlimitedPrice"`

	IsExclusive bool `json:"isExclusive"`
	Featured    bool `json:"featured"`
	IsActive    bool `json:"isActive"`

	ScheduledReleaseAt *time.Time `json:"scheduledReleaseAt,omitempty"`

	PreviewAssetRef string  `json:"previewAssetRef"`
	MasterAssetRef  string  `json:"-"` // never exposed directly, signed URLs only
	StemsAssetRef   *string `json:"-"`
	// LegacyStemsAssetRef is an older upload slot that may still hold stems
	// for beats created before the current uploader; hasStems checks both.
	LegacyStemsAssetRef *string `json:"-"`
	ArtworkAssetRef     *string `json:"artworkAssetRef,omitempty"`

	ExternalProductID *string `json:"externalProductId,omitempty"`
	WavPriceID        *string `json:"wavPriceId,omitempty"`
	TrackoutPriceID   *string `json:"trackoutPriceId,omitempty"`
	UnlimitedPriceID  *string `json:"unlimitedPriceId,omitempty"`

	SyncStatus SyncStatus `json:"syncStatus"`
	SyncError  *string    `json:"syncError,omitempty"`

	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TierPrice returns the price for the given tier.
func (b *Beat) TierPrice(tier LicenseTier) decimal.Decimal {
	switch tier {
	case TierTrackout:
		return b.TrackoutPrice
	case TierUnlimited:
		return b.UnlimitedPrice
	default:
		return b.WavPrice
	}
}

// ExternalPriceID returns the external price id for the given tier, if set.
func (b *Beat) ExternalPriceID(tier LicenseTier) *string {
	switch tier {
	case TierTrackout:
		return b.TrackoutPriceID
	case TierUnlimited:
		return b.UnlimitedPriceID
	default:
		return b.WavPriceID
	}
}

// SetExternalPriceIDs stores the per-tier price ids returned by the
// payment processor.
func (b *Beat) SetExternalPriceIDs(ids map[LicenseTier]string) {
	for tier, id := range ids {
		v := id
		switch tier {
		case TierWAV:
			b.WavPriceID = &v
		case TierTrackout:
			b.TrackoutPriceID = &v
		case TierUnlimited:
			b.UnlimitedPriceID = &v
		}
	}
}

// HasStems reports whether the beat carries stems in either asset slot.
func (b *Beat) HasStems() bool {
	return (b.StemsAssetRef != nil && *b.StemsAssetRef != "") ||
		(b.LegacyStemsAssetRef != nil && *b.LegacyStemsAssetRef != "")
}
