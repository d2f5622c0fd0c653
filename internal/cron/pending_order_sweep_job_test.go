package cron

import (
	"context"
	"errors"
	"testing"
)

type stubSweeper struct {
	swept int
	err   error
	calls int
}

func (s *stubSweeper) SweepStalePending(ctx context.Context) (int, error) {
	s.calls++
	return s.swept, s.err
}

func TestPendingOrderSweepJobRunsSweeper(t *testing.T) {
	t.Parallel()

	sweeper := &stubSweeper{swept: 3}
	job, err := NewPendingOrderSweepJob(PendingOrderSweepJobParams{
		Logger:  testLogger(),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("sweeper called %d times", sweeper.calls)
	}
}

func TestPendingOrderSweepJobSurfacesErrors(t *testing.T) {
	t.Parallel()

	job, err := NewPendingOrderSweepJob(PendingOrderSweepJobParams{
		Logger:  testLogger(),
		Sweeper: &stubSweeper{err: errors.New("db down")},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("sweep failure must surface")
	}
}
