package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	keys map[string]string
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = "1"
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestCheckAndMarkProcessed(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(&fakeStore{keys: map[string]string{}}, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	eventID := uuid.New()

	already, err := manager.CheckAndMarkProcessed(context.Background(), "notifications-worker", eventID)
	if err != nil || already {
		t.Fatalf("first mark: already=%v err=%v", already, err)
	}

	already, err = manager.CheckAndMarkProcessed(context.Background(), "notifications-worker", eventID)
	if err != nil || !already {
		t.Fatalf("second mark should report processed: already=%v err=%v", already, err)
	}

	if err := manager.Delete(context.Background(), "notifications-worker", eventID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	already, err = manager.CheckAndMarkProcessed(context.Background(), "notifications-worker", eventID)
	if err != nil || already {
		t.Fatalf("released event should mark fresh: already=%v err=%v", already, err)
	}
}

func TestCheckAndMarkProcessedValidation(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(&fakeStore{keys: map[string]string{}}, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("missing consumer name must be rejected")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "worker", uuid.Nil); err == nil {
		t.Fatal("nil event id must be rejected")
	}
}
