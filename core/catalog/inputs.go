package catalog

import (
	"strings"

	"beatforge/model"

	"github.com/shopspring/decimal"
)

// BPM bounds enforced on writes.
const (
	minBPM = 60
	maxBPM = 220
)

// CreateBeatInput carries all fields for a new beat. ScheduledReleaseAt is
// the raw wire value; empty means unscheduled.
type CreateBeatInput struct {
	OwnerID       *string
	Title         string
	Description   string
	Genre         string
	Key           string
	Mode          string
	Tags          []string
	BPM           int
	DurationLabel string

	WavPrice       decimal.Decimal
	TrackoutPrice  decimal.Decimal
	UnlimitedPrice decimal.Decimal

	IsExclusive bool
	Featured    bool

	ScheduledReleaseAt string

	PreviewAssetRef string
	MasterAssetRef  string
	StemsAssetRef   *string
	ArtworkAssetRef *string
}

func (in *CreateBeatInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.PreviewAssetRef == "" {
		return &ValidationError{Field: "previewAssetRef", Reason: "must not be empty"}
	}
	if in.MasterAssetRef == "" {
		return &ValidationError{Field: "masterAssetRef", Reason: "must not be empty"}
	}
	if err := validateBPM(in.BPM); err != nil {
		return err
	}
	return validatePrices(in.WavPrice, in.TrackoutPrice, in.UnlimitedPrice)
}

// BeatPatch is a partial update; nil fields are untouched. ScheduleSet marks
// that the patch touches scheduledReleaseAt, with ScheduleRaw holding the
// raw value (empty clears the schedule).
type BeatPatch struct {
	Title         *string
	Description   *string
	Genre         *string
	Key           *string
	Mode          *string
	Tags          *[]string
	BPM           *int
	DurationLabel *string

	WavPrice       *decimal.Decimal
	TrackoutPrice  *decimal.Decimal
	UnlimitedPrice *decimal.Decimal

	IsExclusive *bool
	Featured    *bool

	ScheduleSet bool
	ScheduleRaw string

	PreviewAssetRef *string
	MasterAssetRef  *string
	StemsAssetRef   *string
	ArtworkAssetRef *string
}

func (p *BeatPatch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.BPM != nil {
		if err := validateBPM(*p.BPM); err != nil {
			return err
		}
	}
	for _, price := range []*decimal.Decimal{p.WavPrice, p.TrackoutPrice, p.UnlimitedPrice} {
		if price != nil && price.IsNegative() {
			return &ValidationError{Field: "price", Reason: "must not be negative"}
		}
	}
	return nil
}

// apply copies the set fields onto the beat. Schedule handling lives in the
// service because it recomputes isActive.
func (p *BeatPatch) apply(beat *model.Beat) {
	if p.Title != nil {
		beat.Title = *p.Title
	}
	if p.Description != nil {
		beat.Description = *p.Description
	}
	if p.Genre != nil {
		beat.Genre = *p.Genre
	}
	if p.Key != nil {
		beat.Key = *p.Key
	}
	if p.Mode != nil {
		beat.Mode = *p.Mode
	}
	if p.Tags != nil {
		beat.Tags = *p.Tags
	}
	if p.BPM != nil {
		beat.BPM = *p.BPM
	}
	if p.DurationLabel != nil {
		beat.DurationLabel = *p.DurationLabel
	}
	if p.WavPrice != nil {
		beat.WavPrice = *p.WavPrice
	}
	if p.TrackoutPrice != nil {
		beat.TrackoutPrice = *p.TrackoutPrice
	}
	if p.UnlimitedPrice != nil {
		beat.UnlimitedPrice = *p.UnlimitedPrice
	}
	if p.IsExclusive != nil {
		beat.IsExclusive = *p.IsExclusive
	}
	if p.Featured != nil {
		beat.Featured = *p.Featured
	}
	if p.PreviewAssetRef != nil {
		beat.PreviewAssetRef = *p.PreviewAssetRef
	}
	if p.MasterAssetRef != nil {
		beat.MasterAssetRef = *p.MasterAssetRef
	}
	if p.StemsAssetRef != nil {
		if *p.StemsAssetRef == "" {
			beat.StemsAssetRef = nil
		} else {
			v := *p.StemsAssetRef
			beat.StemsAssetRef = &v
		}
	}
	if p.ArtworkAssetRef != nil {
		if *p.ArtworkAssetRef == "" {
			beat.ArtworkAssetRef = nil
		} else {
			v := *p.ArtworkAssetRef
			beat.ArtworkAssetRef = &v
		}
	}
}

func validateBPM(bpm int) error {
	if bpm < minBPM || bpm > maxBPM {
		return &ValidationError{Field: "bpm", Reason: "must be between 60 and 220"}
	}
	return nil
}

func validatePrices(prices ...decimal.Decimal) error {
	for _, price := range prices {
		if price.IsNegative() {
			return &ValidationError{Field: "price", Reason: "must not be negative"}
		}
	}
	return nil
}

// validateQuery rejects malformed filters and normalizes pagination.
func validateQuery(q *model.ListQuery) error {
	f := q.Filter
	if f.BPMMin != nil && f.BPMMax != nil && *f.BPMMin > *f.BPMMax {
		return &ValidationError{Field: "bpmRange", Reason: "min exceeds max"}
	}
	if f.PriceMin != nil && f.PriceMin.IsNegative() {
		return &ValidationError{Field: "priceMin", Reason: "must not be negative"}
	}
	if f.PriceMax != nil && f.PriceMax.IsNegative() {
		return &ValidationError{Field: "priceMax", Reason: "must not be negative"}
	}
	if f.PriceMin != nil && f.PriceMax != nil && f.PriceMin.GreaterThan(*f.PriceMax) {
		return &ValidationError{Field: "priceRange", Reason: "min exceeds max"}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 12
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
