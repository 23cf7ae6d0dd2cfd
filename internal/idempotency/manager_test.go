package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return NewRedisStore(client, testLogger())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_ExecutesOnce(t *testing.T) {
	manager := NewManager(setupTestStore(t), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	ran, err := manager.Execute(ctx, "msg:42:1", time.Hour, fn)
	require.NoError(t, err)
	assert.True(t, ran)

	// Telegram redelivers unacknowledged updates; every redelivery after the
	// first success must be skipped even though the lock was long released.
	for i := 0; i < 2; i++ {
		ran, err = manager.Execute(ctx, "msg:42:1", time.Hour, fn)
		require.NoError(t, err)
		assert.False(t, ran)
	}

	assert.Equal(t, 1, calls)
}

func TestManager_InProgressKeyIsRejected(t *testing.T) {
	store := setupTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	locked, err := store.Lock(ctx, "cb:77", time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	ran, err := manager.Execute(ctx, "cb:77", time.Hour, func(context.Context) error {
		t.Fatal("operation must not run while the key is held")
		return nil
	})
	require.ErrorIs(t, err, ErrUpdateInProgress)
	assert.False(t, ran)
}

func TestManager_DistinctKeysBothRun(t *testing.T) {
	manager := NewManager(setupTestStore(t), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	for _, key := range []string{"msg:42:1", "msg:42:2"} {
		ran, err := manager.Execute(ctx, key, time.Hour, fn)
		require.NoError(t, err)
		assert.True(t, ran)
	}

	assert.Equal(t, 2, calls)
}

func TestManager_FailedOperationCanRetry(t *testing.T) {
	manager := NewManager(setupTestStore(t), testLogger())
	ctx := context.Background()

	boom := errors.New("handler failed")
	ran, err := manager.Execute(ctx, "msg:42:1", time.Hour, func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, ran)

	// The failure did not mark the key completed, so a redelivery runs again.
	ran, err = manager.Execute(ctx, "msg:42:1", time.Hour, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
