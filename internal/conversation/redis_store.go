package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatRecordKeyPattern  = "chat:record:%d"
	chatRecordScanPattern = "chat:record:*"
)

// RedisStore persists conversation records in Redis with a TTL, so abandoned
// conversations expire back to a fresh greeting.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisStore initializes a Redis-backed Store. A zero ttl stores records
// without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Get returns the stored record or ErrRecordNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, chatID int64) (Record, error) {
	key := redisChatRecordKey(chatID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrRecordNotFound
		}

		s.log.Error("failed to get conversation record from redis", "chat_id", chatID, "error", err)
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		s.log.Error("failed to decode conversation record", "chat_id", chatID, "error", err)
		return Record{}, err
	}

	return rec, nil
}

// Put replaces the stored record and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, chatID int64, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		s.log.Error("failed to encode conversation record", "chat_id", chatID, "error", err)
		return err
	}

	key := redisChatRecordKey(chatID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save conversation record in redis", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// Delete removes the stored record for the chat.
func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	key := redisChatRecordKey(chatID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Error("failed to delete conversation record", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// StaleChatIDs returns the chats whose records were last updated before the
// cutoff, by scanning Redis keys. Undecodable records are reported stale so
// the cleanup job removes them.
func (s *RedisStore) StaleChatIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	var (
		cursor uint64
		result []int64
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, chatRecordScanPattern, 100).Result()
		if err != nil {
			s.log.Error("failed to scan conversation records", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch conversation record", "key", key, "error", err)
				return nil, err
			}

			var rec Record
			if err := json.Unmarshal([]byte(data), &rec); err != nil {
				s.log.Warn("treating undecodable conversation record as stale", "key", key, "error", err)
				var chatID int64
				if _, scanErr := fmt.Sscanf(key, chatRecordKeyPattern, &chatID); scanErr == nil {
					result = append(result, chatID)
				}
				continue
			}

			if rec.UpdatedAt.Before(cutoff) {
				result = append(result, rec.ChatID)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func redisChatRecordKey(chatID int64) string {
	return fmt.Sprintf(chatRecordKeyPattern, chatID)
}
