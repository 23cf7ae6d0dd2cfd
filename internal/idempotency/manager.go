// Package idempotency deduplicates Telegram update redeliveries. The long
// poller re-pulls unacknowledged updates after a restart, and handling the
// same update twice would double-send prompts or double-advance pagination.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrUpdateInProgress indicates another worker is already handling the update.
var ErrUpdateInProgress = errors.New("update with this key is already being handled")

// Statuses of a tracked update key.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Store persists the handling status per update key.
type Store interface {
	Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, status string, ttl time.Duration) error
	ReleaseLock(ctx context.Context, key string) error
}

// Manager executes an operation at most once per update key.
type Manager interface {
	// Execute runs fn unless the key was already handled or is being
	// handled. It reports whether fn actually ran.
	Execute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager creates a Manager over the given Store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	if fn == nil {
		return false, errors.New("operation fn cannot be nil")
	}

	status, err := m.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if status == StatusCompleted {
		m.log.Debug("skipping duplicate update", slog.String("key", key))
		return false, nil
	}

	locked, err := m.store.Lock(ctx, key, 5*time.Minute)
	if err != nil {
		return false, err
	}

	if !locked {
		return false, ErrUpdateInProgress
	}
	defer func() {
		if err := m.store.ReleaseLock(ctx, key); err != nil {
			m.log.Error("failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	// The concurrent holder may have completed between the status read and
	// the lock acquisition.
	status, err = m.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if status == StatusCompleted {
		m.log.Debug("skipping duplicate update", slog.String("key", key))
		return false, nil
	}

	if err := fn(ctx); err != nil {
		return true, err
	}

	if err := m.store.Set(ctx, key, StatusCompleted, ttl); err != nil {
		return true, err
	}

	return true, nil
}
