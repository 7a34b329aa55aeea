package pricing

import (
	"context"
	"fmt"
	"time"

	"beatforge/logger"
	"beatforge/model"
)

// Result carries the external identifiers created for a beat: one product
// and one price per license tier.
type Result struct {
	ProductID string
	PriceIDs  map[model.LicenseTier]string
}

// PaymentClient creates the product and per-tier price objects in the
// external payment processor. The call is not idempotent: a retry after a
// partial failure can leave duplicate products on the processor side.
type PaymentClient interface {
	CreateProduct(ctx context.Context, beat *model.Beat) (*Result, error)
}

// Syncer mirrors a beat's tier prices into the payment processor with
// bounded exponential backoff. It is invoked after the catalog row is
// committed and never blocks or fails the catalog write.
type Syncer struct {
	client      PaymentClient
	baseDelay   time.Duration
	maxAttempts int
	callTimeout time.Duration

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewSyncer creates a Syncer. maxAttempts values below 1 are raised to 1.
func NewSyncer(client PaymentClient, baseDelay time.Duration, maxAttempts int, callTimeout time.Duration) *Syncer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Syncer{
		client:      client,
		baseDelay:   baseDelay,
		maxAttempts: maxAttempts,
		callTimeout: callTimeout,
		sleep:       time.Sleep,
	}
}

// Sync attempts the external product creation, waiting baseDelay * 2^attempt
// after each failed attempt, up to maxAttempts. Each attempt runs under its
// own timeout. On exhaustion it returns the last error.
func (s *Syncer) Sync(ctx context.Context, beat *model.Beat) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		res, err := s.client.CreateProduct(callCtx, beat)
		cancel()
		if err == nil {
			if attempt > 0 {
				logger.Info("product sync succeeded after retry",
					logger.String("beatId", beat.ID),
					logger.Int("attempt", attempt+1))
			}
			return res, nil
		}
		lastErr = err
		logger.Warn("product sync attempt failed",
			logger.String("beatId", beat.ID),
			logger.Int("attempt", attempt+1),
			logger.ErrorField(err))
		if attempt < s.maxAttempts-1 {
			s.sleep(s.baseDelay * time.Duration(1<<attempt))
		}
	}
	return nil, fmt.Errorf("product sync gave up after %d attempts: %w", s.maxAttempts, lastErr)
}
