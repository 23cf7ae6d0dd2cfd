package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	chatLockKeyPattern = "chat:lock:%d"
	chatLockTTL        = 5 * time.Second
)

// unlockScript deletes the lock only when this holder's lease token is still
// stored, so an instance whose lease expired cannot release a lock another
// instance has since acquired.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker coordinates the per-chat critical section across bot instances
// with a SetNX lease. The TTL bounds how long a crashed holder can block a
// chat.
type RedisLocker struct {
	client *redis.Client
	log    *slog.Logger
	leases sync.Map
}

// NewRedisLocker initializes a Redis-backed Locker.
func NewRedisLocker(client *redis.Client, log *slog.Logger) *RedisLocker {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLocker{
		client: client,
		log:    log,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, chatID int64) error {
	key := fmt.Sprintf(chatLockKeyPattern, chatID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, chatLockTTL).Result()
	if err != nil {
		l.log.Error("failed to acquire conversation lock", "chat_id", chatID, "error", err)
		return err
	}

	if !acquired {
		l.log.Warn("conversation lock already held", "chat_id", chatID)
		return ErrConversationLocked
	}

	l.leases.Store(chatID, token)

	return nil
}

func (l *RedisLocker) Unlock(ctx context.Context, chatID int64) {
	token, held := l.leases.LoadAndDelete(chatID)
	if !held {
		return
	}

	key := fmt.Sprintf(chatLockKeyPattern, chatID)

	released, err := unlockScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		l.log.Error("failed to release conversation lock", "chat_id", chatID, "error", err)
		return
	}

	if released == 0 {
		l.log.Warn("conversation lock lease expired before release", "chat_id", chatID)
	}
}
