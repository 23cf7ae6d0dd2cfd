package conversation

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcheep/parkcheep-bot/internal/geo"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}

func TestRedisStore_PutAndGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour, testLogger())
	ctx := context.Background()

	rec := recordWithKind(123, KindShowSearchData)
	rec.SearchQuery = "Orchard Road"
	rec.Destination = &geo.Coordinate{Latitude: 1.3521, Longitude: 103.8198}

	require.NoError(t, store.Put(ctx, rec.ChatID, rec))

	result, err := store.Get(ctx, rec.ChatID)
	require.NoError(t, err)
	assert.Equal(t, rec.Kind, result.Kind)
	assert.Equal(t, rec.SearchQuery, result.SearchQuery)
	if assert.NotNil(t, result.Destination) {
		assert.Equal(t, rec.Destination.Latitude, result.Destination.Latitude)
	}
	assert.False(t, result.UpdatedAt.IsZero())
}

func TestRedisStore_GetNotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour, testLogger())

	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour, testLogger())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 123, recordWithKind(123, KindIdle)))
	require.NoError(t, store.Delete(ctx, 123))

	_, err := store.Get(ctx, 123)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRedisStore_RecordsExpire(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute, testLogger())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 123, recordWithKind(123, KindSelectTime)))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, 123)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRedisStore_StaleChatIDs(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, 0, testLogger())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, recordWithKind(1, KindIdle)))
	require.NoError(t, store.Put(ctx, 2, recordWithKind(2, KindSearch)))

	stale, err := store.StaleChatIDs(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, stale)

	stale, err = store.StaleChatIDs(ctx, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	client, _ := setupTestRedis(t)
	locker := NewRedisLocker(client, testLogger())
	ctx := context.Background()

	require.NoError(t, locker.Lock(ctx, 42))
	assert.ErrorIs(t, locker.Lock(ctx, 42), ErrConversationLocked)

	// Other chats are unaffected.
	require.NoError(t, locker.Lock(ctx, 7))

	locker.Unlock(ctx, 42)
	assert.NoError(t, locker.Lock(ctx, 42))
}

func TestRedisLocker_UnlockOnlyReleasesOwnLease(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	slow := NewRedisLocker(client, testLogger())
	require.NoError(t, slow.Lock(ctx, 42))

	// The slow holder's lease expires mid-handle and another instance takes
	// over the chat.
	mr.FastForward(6 * time.Second)
	fast := NewRedisLocker(client, testLogger())
	require.NoError(t, fast.Lock(ctx, 42))

	// The stale holder's release must not free the new holder's lock.
	slow.Unlock(ctx, 42)
	assert.ErrorIs(t, slow.Lock(ctx, 42), ErrConversationLocked)

	fast.Unlock(ctx, 42)
	assert.NoError(t, slow.Lock(ctx, 42))
}
