package conversation

import (
	"context"
	"errors"
	"sync"
)

// ErrConversationLocked indicates a concurrent update for the same chat
// already holds the critical section.
var ErrConversationLocked = errors.New("conversation is locked, try again later")

// Locker serializes the load-handle-store cycle per chat. At most one update
// for a given chat id may hold the lock at a time; updates for different
// chats proceed independently.
type Locker interface {
	Lock(ctx context.Context, chatID int64) error
	Unlock(ctx context.Context, chatID int64)
}

// MemoryLocker is an in-process keyed mutex. It is sufficient for a single
// bot instance; multi-instance deployments use RedisLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewMemoryLocker initializes an in-process Locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, chatID int64) error {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()

	return nil
}

func (l *MemoryLocker) Unlock(ctx context.Context, chatID int64) {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	l.mu.Unlock()

	if ok {
		m.Unlock()
	}
}
