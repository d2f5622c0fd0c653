package checkout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/sampleforge/sampleforge-backend/pkg/logger"

	"github.com/sampleforge/sampleforge-backend/internal/orders"
)

const sweepBatchSize = 100

// Sweeper cancels pending orders whose payment session can no longer
// complete. Orders like these accumulate when session creation fails or a
// shopper abandons the hosted page without Stripe ever sending an expiry
// event.
type Sweeper interface {
	SweepStalePending(ctx context.Context) (int, error)
}

type sweeper struct {
	repo   orders.Repository
	maxAge time.Duration
	logg   *logger.Logger
}

// NewSweeper builds a sweeper. maxAge must comfortably exceed the hosted
// session lifetime so a sweep can never race a payment that might still
// land.
func NewSweeper(repo orders.Repository, maxAge time.Duration, logg *logger.Logger) (Sweeper, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if maxAge < 24*time.Hour {
		return nil, fmt.Errorf("sweep max age must be at least 24h")
	}
	return &sweeper{repo: repo, maxAge: maxAge, logg: logg}, nil
}

func (s *sweeper) SweepStalePending(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.maxAge)
	stale, err := s.repo.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	var errs []error
	for _, order := range stale {
		cancelled, err := s.repo.MarkCancelled(ctx, order.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		if cancelled {
			swept++
		}
	}
	if combined := multierr.Combine(errs...); combined != nil {
		return swept, combined
	}
	if s.logg != nil && swept > 0 {
		logCtx := s.logg.WithField(ctx, "swept_count", swept)
		s.logg.Info(logCtx, "stale pending orders cancelled")
	}
	return swept, nil
}
