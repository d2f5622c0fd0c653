package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

type stubLock struct {
	locked   bool
	acquired int
	released int
}

func (l *stubLock) Acquire(ctx context.Context) (bool, error) {
	l.acquired++
	return l.locked, nil
}

func (l *stubLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

type recordingJob struct {
	name string
	runs int
	err  error
}

func (j *recordingJob) Name() string { return j.name }

func (j *recordingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

func TestServiceRunsRegisteredJobs(t *testing.T) {
	t.Parallel()

	first := &recordingJob{name: "first"}
	second := &recordingJob{name: "second", err: errors.New("boom")}
	third := &recordingJob{name: "third"}
	lock := &stubLock{locked: true}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(first, second, third),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if first.runs != 1 || second.runs != 1 || third.runs != 1 {
		t.Fatalf("runs = %d/%d/%d, want one each", first.runs, second.runs, third.runs)
	}
	if lock.released != 1 {
		t.Fatalf("lock released %d times", lock.released)
	}
}

func TestServiceSkipsCycleWhenLockBusy(t *testing.T) {
	t.Parallel()

	job := &recordingJob{name: "only"}
	lock := &stubLock{locked: false}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran %d times while lock was busy", job.runs)
	}
	if lock.released != 0 {
		t.Fatalf("unheld lock must not be released")
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	t.Parallel()

	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatal("missing lock must be rejected")
	}
}
