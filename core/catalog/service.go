package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"beatforge/core/pricing"
	"beatforge/logger"
	"beatforge/model"
	"beatforge/repository"

	"github.com/google/uuid"
)

// ProductSyncer mirrors a beat's tier prices into the payment processor.
type ProductSyncer interface {
	Sync(ctx context.Context, beat *model.Beat) (*pricing.Result, error)
}

// ListingCache caches public listing pages.
type ListingCache interface {
	GetPage(ctx context.Context, q model.ListQuery) (*model.BeatPage, bool)
	SetPage(ctx context.Context, q model.ListQuery, page *model.BeatPage)
	Invalidate(ctx context.Context)
}

// Service is the catalog core: visibility scheduling, listing, product sync
// hand-off and the admin write surface.
type Service struct {
	repo    repository.BeatRepository
	reviews repository.ReviewRepository
	cache   ListingCache
	syncer  ProductSyncer

	now    func() time.Time
	syncWG sync.WaitGroup
}

// NewService creates a catalog service. reviews, cache and syncer may be nil;
// the corresponding features degrade to no-ops.
func NewService(repo repository.BeatRepository, reviews repository.ReviewRepository, cache ListingCache, syncer ProductSyncer) *Service {
	return &Service{
		repo:    repo,
		reviews: reviews,
		cache:   cache,
		syncer:  syncer,
		now:     time.Now,
	}
}

// WithClock replaces the service clock. Used by tests and the sweep command.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateBeat validates, computes the initial visibility from the schedule,
// commits the row, then hands the beat to the product sync in the
// background. The create succeeds regardless of the sync outcome.
func (s *Service) CreateBeat(ctx context.Context, input CreateBeatInput) (*model.Beat, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	beat := &model.Beat{
		ID:                 uuid.NewString(),
		OwnerID:            input.OwnerID,
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		Genre:              input.Genre,
		Key:                input.Key,
		Mode:               input.Mode,
		Tags:               input.Tags,
		BPM:                input.BPM,
		DurationLabel:      input.DurationLabel,
		WavPrice:           input.WavPrice,
		TrackoutPrice:      input.TrackoutPrice,
		UnlimitedPrice:     input.UnlimitedPrice,
		IsExclusive:        input.IsExclusive,
		Featured:           input.Featured,
		IsActive:           ComputeIsActiveRaw(input.ScheduledReleaseAt, now),
		ScheduledReleaseAt: ParseScheduledRelease(input.ScheduledReleaseAt),
		PreviewAssetRef:    input.PreviewAssetRef,
		MasterAssetRef:     input.MasterAssetRef,
		StemsAssetRef:      input.StemsAssetRef,
		ArtworkAssetRef:    input.ArtworkAssetRef,
		SyncStatus:         model.SyncPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if beat.Tags == nil {
		beat.Tags = []string{}
	}

	if err := s.repo.Create(ctx, beat); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	logger.Info("beat created",
		logger.String("beatId", beat.ID),
		logger.Bool("isActive", beat.IsActive),
		logger.Bool("scheduled", beat.ScheduledReleaseAt != nil))

	if s.syncer != nil {
		clone := *beat
		s.syncWG.Add(1)
		go s.runProductSync(&clone)
	}
	return beat, nil
}

// runProductSync runs after the catalog row is committed. Success attaches
// the external ids in a follow-up write; exhaustion records the failure on
// the row. Neither outcome reaches the creator.
func (s *Service) runProductSync(beat *model.Beat) {
	defer s.syncWG.Done()

	ctx := context.Background()
	result, err := s.syncer.Sync(ctx, beat)
	if err != nil {
		logger.Error("product sync failed, beat left unsynced",
			logger.String("beatId", beat.ID),
			logger.ErrorField(err))
		if markErr := s.repo.MarkSyncFailed(ctx, beat.ID, err.Error(), s.now()); markErr != nil {
			logger.Error("failed to record sync failure",
				logger.String("beatId", beat.ID),
				logger.ErrorField(markErr))
		}
		return
	}

	if err := s.repo.AttachSyncResult(ctx, beat.ID, result.ProductID, result.PriceIDs, s.now()); err != nil {
		logger.Error("failed to attach sync result",
			logger.String("beatId", beat.ID),
			logger.ErrorField(err))
		return
	}
	logger.Info("product sync completed",
		logger.String("beatId", beat.ID),
		logger.String("productId", result.ProductID))
}

// WaitForSync blocks until in-flight product syncs finish. Called on
// shutdown and by tests.
func (s *Service) WaitForSync() {
	s.syncWG.Wait()
}

// GetBeat loads a beat under the given scope. Public lookups re-check the
// schedule so a stale stored flag can never surface a beat early.
func (s *Service) GetBeat(ctx context.Context, id string, scope model.VisibilityScope) (*model.Beat, error) {
	beat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if beat == nil {
		return nil, ErrNotFound
	}
	if scope == model.ScopePublic {
		if !beat.IsActive || !ComputeIsActive(beat.ScheduledReleaseAt, s.now()) {
			return nil, ErrNotFound
		}
	}
	return beat, nil
}

// ListBeats returns one page of beats. Public pages may be served from
// cache; owner and admin scopes always hit the store.
func (s *Service) ListBeats(ctx context.Context, q model.ListQuery) (*model.BeatPage, error) {
	if err := validateQuery(&q); err != nil {
		return nil, err
	}

	cacheable := q.Scope == model.ScopePublic && s.cache != nil
	if cacheable {
		if page, ok := s.cache.GetPage(ctx, q); ok {
			return page, nil
		}
	}

	page, err := s.repo.List(ctx, q, s.now())
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.SetPage(ctx, q, page)
	}
	return page, nil
}

// UpdateBeat applies a partial update. When the patch touches the schedule,
// isActive is recomputed; clearing the schedule always reactivates. Editing
// tier prices does not re-sync the external product (known gap).
// A non-nil ownerID restricts the write to beats owned by that caller, and
// mismatches are indistinguishable from a missing beat.
func (s *Service) UpdateBeat(ctx context.Context, id string, patch BeatPatch, ownerID *string) (*model.Beat, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	beat, err := s.loadOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	patch.apply(beat)
	now := s.now()
	if patch.ScheduleSet {
		beat.ScheduledReleaseAt = ParseScheduledRelease(patch.ScheduleRaw)
		beat.IsActive = ComputeIsActiveRaw(patch.ScheduleRaw, now)
	}
	beat.UpdatedAt = now

	if err := s.repo.Update(ctx, beat); err != nil {
		if errors.Is(err, repository.ErrNoRow) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	return beat, nil
}

// DeactivateBeat soft-deactivates a beat. The schedule is untouched, so a
// deactivated scheduled beat stays hidden until an admin reactivates it.
func (s *Service) DeactivateBeat(ctx context.Context, id string, ownerID *string) error {
	if _, err := s.loadOwned(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false, s.now()); err != nil {
		if errors.Is(err, repository.ErrNoRow) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ToggleActive sets the stored visibility flag directly. Admin only.
func (s *Service) ToggleActive(ctx context.Context, id string, active bool) (*model.Beat, error) {
	if err := s.repo.SetActive(ctx, id, active, s.now()); err != nil {
		if errors.Is(err, repository.ErrNoRow) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	beat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if beat == nil {
		return nil, ErrNotFound
	}
	return beat, nil
}

// ActivateScheduledBeats runs the release sweep and returns the number of
// beats that went live. Idempotent: a second run over the same data
// reports 0.
func (s *Service) ActivateScheduledBeats(ctx context.Context) (int64, error) {
	count, err := s.repo.ActivateDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.invalidate(ctx)
		logger.Info("release sweep activated beats", logger.Int64("count", count))
	}
	return count, nil
}

// AddReview records a review and folds it into the running average rating.
func (s *Service) AddReview(ctx context.Context, beatID string, authorID string, stars int, comment string) (*model.Review, error) {
	if s.reviews == nil {
		return nil, errors.New("review subsystem not configured")
	}
	if stars < 1 || stars > 5 {
		return nil, &ValidationError{Field: "stars", Reason: "must be between 1 and 5"}
	}
	review := &model.Review{
		BeatID:   beatID,
		AuthorID: authorID,
		Stars:    stars,
		Comment:  comment,
	}
	if err := s.reviews.AddReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNoRow) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

// ListReviews returns recent reviews for a beat.
func (s *Service) ListReviews(ctx context.Context, beatID string, limit int) ([]*model.Review, error) {
	if s.reviews == nil {
		return []*model.Review{}, nil
	}
	return s.reviews.ListByBeat(ctx, beatID, limit)
}

// loadOwned loads a beat and enforces optional ownership. A missing beat and
// a beat owned by someone else return the same opaque ErrNotFound.
func (s *Service) loadOwned(ctx context.Context, id string, ownerID *string) (*model.Beat, error) {
	beat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if beat == nil {
		return nil, ErrNotFound
	}
	if ownerID != nil {
		if beat.OwnerID == nil || *beat.OwnerID != *ownerID {
			return nil, ErrNotFound
		}
	}
	return beat, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
