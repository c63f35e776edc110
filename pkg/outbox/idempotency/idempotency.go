package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/redis"
)

// Manager remembers which envelope event IDs a worker already handled, using
// Redis keys `bb:idempotency:evt:<scope>:<event_id>` with a TTL. The outbox
// publisher uses it so a row whose DB bookkeeping failed after a successful
// publish is not sent twice.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds an idempotency guard that keeps marks for ttl.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// CheckAndMarkProcessed returns true if the event was already marked and
// otherwise marks it.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, scope string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(scope, eventID)
	if err != nil {
		return false, err
	}
	set, err := m.store.SetNX(ctx, key, "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Seen reports whether the event was marked, without marking it.
func (m *Manager) Seen(ctx context.Context, scope string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(scope, eventID)
	if err != nil {
		return false, err
	}
	_, err = m.store.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if redis.IsNil(err) {
		return false, nil
	}
	return false, err
}

// Delete removes the mark so the event can be handled again.
func (m *Manager) Delete(ctx context.Context, scope string, eventID uuid.UUID) error {
	key, err := m.key(scope, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(scope string, eventID uuid.UUID) (string, error) {
	if scope == "" {
		return "", errors.New("scope is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey(fmt.Sprintf("evt:%s", scope), eventID.String()), nil
}
