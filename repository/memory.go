package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"beatforge/model"
)

// memoryBeatRepository is an in-memory BeatRepository with the same
// semantics as the MySQL implementation. It backs dev mode and tests.
type memoryBeatRepository struct {
	mu    sync.RWMutex
	beats map[string]*model.Beat
}

// NewMemoryBeatRepository creates an empty in-memory beat repository.
func NewMemoryBeatRepository() BeatRepository {
	return &memoryBeatRepository{beats: make(map[string]*model.Beat)}
}

func (r *memoryBeatRepository) Create(_ context.Context, beat *model.Beat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *beat
	r.beats[beat.ID] = &clone
	return nil
}

func (r *memoryBeatRepository) GetByID(_ context.Context, id string) (*model.Beat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	beat, ok := r.beats[id]
	if !ok {
		return nil, nil
	}
	clone := *beat
	return &clone, nil
}

func (r *memoryBeatRepository) Update(_ context.Context, beat *model.Beat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.beats[beat.ID]; !ok {
		return ErrNoRow
	}
	clone := *beat
	r.beats[beat.ID] = &clone
	return nil
}

func (r *memoryBeatRepository) SetActive(_ context.Context, id string, active bool, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	beat, ok := r.beats[id]
	if !ok {
		return ErrNoRow
	}
	beat.IsActive = active
	beat.UpdatedAt = now
	return nil
}

func (r *memoryBeatRepository) ActivateDue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, beat := range r.beats {
		if !beat.IsActive && beat.ScheduledReleaseAt != nil && !beat.ScheduledReleaseAt.After(now) {
			beat.IsActive = true
			beat.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (r *memoryBeatRepository) AttachSyncResult(_ context.Context, id string, productID string, priceIDs map[model.LicenseTier]string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	beat, ok := r.beats[id]
	if !ok {
		return ErrNoRow
	}
	p := productID
	beat.ExternalProductID = &p
	beat.SetExternalPriceIDs(priceIDs)
	beat.SyncStatus = model.SyncSynced
	beat.SyncError = nil
	beat.UpdatedAt = now
	return nil
}

func (r *memoryBeatRepository) MarkSyncFailed(_ context.Context, id string, message string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	beat, ok := r.beats[id]
	if !ok {
		return ErrNoRow
	}
	beat.SyncStatus = model.SyncFailed
	m := message
	beat.SyncError = &m
	beat.UpdatedAt = now
	return nil
}

func (r *memoryBeatRepository) List(_ context.Context, q model.ListQuery, now time.Time) (*model.BeatPage, error) {
	r.mu.RLock()
	matched := make([]*model.Beat, 0)
	for _, beat := range r.beats {
		if !visibleInScope(beat, q, now) {
			continue
		}
		if !matchesFilter(beat, q.Filter) {
			continue
		}
		clone := *beat
		matched = append(matched, &clone)
	}
	r.mu.RUnlock()

	sortBeats(matched, q.Sort)

	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return &model.BeatPage{
		Items:      matched[start:end],
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages(total, q.Limit),
	}, nil
}

// visibleInScope mirrors the SQL visibility clause: public reads re-check
// the schedule, never the stored flag alone.
func visibleInScope(beat *model.Beat, q model.ListQuery, now time.Time) bool {
	switch q.Scope {
	case model.ScopePublic:
		if !beat.IsActive {
			return false
		}
		return beat.ScheduledReleaseAt == nil || !beat.ScheduledReleaseAt.After(now)
	case model.ScopeOwner:
		return beat.OwnerID != nil && *beat.OwnerID == q.OwnerID
	default:
		return true
	}
}

func matchesFilter(beat *model.Beat, f model.BeatFilter) bool {
	if f.Genre != "" && f.Genre != model.GenreAll && beat.Genre != f.Genre {
		return false
	}
	if f.BPMMin != nil && beat.BPM < *f.BPMMin {
		return false
	}
	if f.BPMMax != nil && beat.BPM > *f.BPMMax {
		return false
	}
	if f.Key != "" && beat.Key != f.Key {
		return false
	}
	// Price bounds compare the wav tier as decimals; 19.99 matches 19.99
	// exactly.
	if f.PriceMin != nil && beat.WavPrice.LessThan(*f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && beat.WavPrice.GreaterThan(*f.PriceMax) {
		return false
	}
	if f.IsExclusive != nil && beat.IsExclusive != *f.IsExclusive {
		return false
	}
	if f.Featured != nil && beat.Featured != *f.Featured {
		return false
	}
	if f.HasStems != nil && beat.HasStems() != *f.HasStems {
		return false
	}
	if f.Search != "" && !matchesSearch(beat, f.Search) {
		return false
	}
	return true
}

func matchesSearch(beat *model.Beat, search string) bool {
	term := strings.ToLower(search)
	if strings.Contains(strings.ToLower(beat.Title), term) {
		return true
	}
	if strings.Contains(strings.ToLower(beat.Description), term) {
		return true
	}
	for _, tag := range beat.Tags {
		if strings.ToLower(tag) == term {
			return true
		}
	}
	return false
}

func sortBeats(beats []*model.Beat, opt model.SortOption) {
	sort.SliceStable(beats, func(i, j int) bool {
		a, b := beats[i], beats[j]
		switch opt {
		case model.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case model.SortPriceAsc:
			return a.WavPrice.LessThan(b.WavPrice)
		case model.SortPriceDesc:
			return b.WavPrice.LessThan(a.WavPrice)
		case model.SortPopular:
			return a.Rating > b.Rating
		default:
			return b.CreatedAt.Before(a.CreatedAt)
		}
	})
}
