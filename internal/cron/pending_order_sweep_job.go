package cron

import (
	"context"
	"fmt"

	"github.com/sampleforge/sampleforge-backend/internal/checkout"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

// PendingOrderSweepJobParams configure the stale pending order sweep.
type PendingOrderSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper checkout.Sweeper
}

// NewPendingOrderSweepJob wraps the checkout sweeper as a scheduled job.
// Orders stuck in PENDING arrive two ways: session creation failed after the
// order row was written, or the payment expiry event was never delivered.
func NewPendingOrderSweepJob(params PendingOrderSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	return &pendingOrderSweepJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type pendingOrderSweepJob struct {
	logg    *logger.Logger
	sweeper checkout.Sweeper
}

func (j *pendingOrderSweepJob) Name() string { return "pending-order-sweep" }

func (j *pendingOrderSweepJob) Run(ctx context.Context) error {
	swept, err := j.sweeper.SweepStalePending(ctx)
	logCtx := j.logg.WithField(ctx, "swept_count", swept)
	if err != nil {
		return fmt.Errorf("pending order sweep: %w", err)
	}
	j.logg.Info(logCtx, "pending order sweep complete")
	return nil
}
