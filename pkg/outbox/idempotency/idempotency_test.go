package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values      map[string]string
	setNXError  error
	getError    error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.getError != nil {
		return "", f.getError
	}
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	if f.setNXError != nil {
		return false, f.setNXError
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = "1"
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, _ any, ttl time.Duration) error {
	f.lastKey = key
	f.lastTTL = ttl
	f.values[key] = "1"
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "bb:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMarkProcessed(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "stock-topic", eventID)
	if err != nil || already {
		t.Fatalf("first call should mark, already=%v err=%v", already, err)
	}
	expectedKey := "bb:idempotency:evt:stock-topic:" + eventID.String()
	if store.lastKey != expectedKey {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}

	already, err = manager.CheckAndMarkProcessed(context.Background(), "stock-topic", eventID)
	if err != nil || !already {
		t.Fatalf("second call should report processed, already=%v err=%v", already, err)
	}
}

func TestSeenDoesNotMark(t *testing.T) {
	store := newFakeStore()
	manager, _ := NewManager(store, time.Hour)
	eventID := uuid.New()

	seen, err := manager.Seen(context.Background(), "requests", eventID)
	if err != nil || seen {
		t.Fatalf("unexpected seen=%v err=%v", seen, err)
	}
	if len(store.values) != 0 {
		t.Fatalf("Seen must not write")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "requests", eventID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	seen, err = manager.Seen(context.Background(), "requests", eventID)
	if err != nil || !seen {
		t.Fatalf("expected seen after mark, seen=%v err=%v", seen, err)
	}
}

func TestErrorsPropagate(t *testing.T) {
	store := newFakeStore()
	store.setNXError = errors.New("boom")
	store.getError = errors.New("down")
	manager, _ := NewManager(store, time.Hour)

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "s", uuid.New()); err == nil {
		t.Fatal("expected SetNX error")
	}
	if _, err := manager.Seen(context.Background(), "s", uuid.New()); err == nil {
		t.Fatal("expected Get error")
	}
	if _, err := manager.Seen(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected scope validation")
	}
	if _, err := manager.Seen(context.Background(), "s", uuid.Nil); err == nil {
		t.Fatal("expected event id validation")
	}
}

func TestDeleteProcessed(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	if err := manager.Delete(context.Background(), "stock-topic", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	expected := "bb:idempotency:evt:stock-topic:" + eventID.String()
	if store.lastDeleted != expected {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}
