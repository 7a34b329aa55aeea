package repository

import (
	"context"
	"fmt"

	"beatforge/model"

	"gorm.io/gorm"
)

// ReviewRepository persists reviews and keeps the beat's running average
// rating in step.
type ReviewRepository interface {
	AddReview(ctx context.Context, review *model.Review) error
	ListByBeat(ctx context.Context, beatID string, limit int) ([]*model.Review, error)
}

type gormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a GORM-backed review repository.
func NewGormReviewRepository(db *gorm.DB) ReviewRepository {
	return &gormReviewRepository{db: db}
}

// AddReview inserts the review and folds it into the beat's rating:
// newAvg = (avg*count + stars) / (count+1), count+1. Both writes happen in
// one transaction.
func (r *gormReviewRepository) AddReview(ctx context.Context, review *model.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		res := tx.Exec(
			`UPDATE beats
			 SET rating = (rating * review_count + ?) / (review_count + 1),
			     review_count = review_count + 1
			 WHERE id = ?`,
			review.Stars, review.BeatID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRow
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add review for beat %s: %w", review.BeatID, err)
	}
	return nil
}

// ListByBeat returns the most recent reviews for a beat.
func (r *gormReviewRepository) ListByBeat(ctx context.Context, beatID string, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("beat_id = ?", beatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for beat %s: %w", beatID, err)
	}
	return reviews, nil
}
