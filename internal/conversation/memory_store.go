package conversation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps conversation records in process memory. It is the
// development and test backend; records do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]Record
}

// NewMemoryStore initializes an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]Record),
	}
}

func (s *MemoryStore) Get(ctx context.Context, chatID int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[chatID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}

	return rec, nil
}

func (s *MemoryStore) Put(ctx context.Context, chatID int64, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[chatID] = rec

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, chatID)

	return nil
}
