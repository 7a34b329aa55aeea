package model

import (
	"github.com/shopspring/decimal"
)

// GenreAll is the sentinel genre value that disables the genre filter.
const GenreAll = "all"

// BeatFilter holds the optional listing filters; set filters combine with AND.
type BeatFilter struct {
	// Genre filters by exact match; empty or GenreAll disables it.
	Genre string
	// BPMMin/BPMMax bound bpm inclusively.
	BPMMin *int
	BPMMax *int
	// Key filters by exact musical key.
	Key string
	// PriceMin/PriceMax bound the wav-tier price inclusively, compared as
	// decimals.
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal

	IsExclusive *bool
	Featured    *bool
	// HasStems matches beats with stems in either of the two asset slots.
	HasStems *bool

	// Search matches a case-insensitive substring of title or description,
	// or an exact tag.
	Search string
}

// SortOption orders a listing.
type SortOption string

const (
	SortNewest    SortOption = "newest"
	SortOldest    SortOption = "oldest"
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
	SortPopular   SortOption = "popular"
)

// ParseSortOption maps a raw sort value to a SortOption, defaulting to newest.
func ParseSortOption(s string) SortOption {
	switch SortOption(s) {
	case SortOldest, SortPriceAsc, SortPriceDesc, SortPopular:
		return SortOption(s)
	default:
		return SortNewest
	}
}

// VisibilityScope controls which beats a listing or lookup may see.
type VisibilityScope int

const (
	// ScopePublic shows only active beats whose release time has passed.
	// The schedule is re-checked at read time; a stored isActive=true is
	// never trusted on its own.
	ScopePublic VisibilityScope = iota
	// ScopeOwner bypasses visibility but restricts to one owner. Only
	// privileged callers get this scope; non-privileged authenticated
	// callers browse with ScopePublic, never restricted to their own beats.
	ScopeOwner
	// ScopeAdminAll bypasses visibility entirely.
	ScopeAdminAll
)

// ListQuery is a full listing request against the catalog.
type ListQuery struct {
	Filter BeatFilter
	Sort   SortOption
	// Page is 1-indexed.
	Page  int
	Limit int

	Scope VisibilityScope
	// OwnerID is consulted only when Scope is ScopeOwner.
	OwnerID string
}

// BeatPage is one page of listing results.
type BeatPage struct {
	Items      []*Beat `json:"items"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}
