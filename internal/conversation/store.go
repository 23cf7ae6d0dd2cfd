package conversation

import (
	"context"
	"errors"
)

// ErrRecordNotFound indicates no conversation record exists for the key.
var ErrRecordNotFound = errors.New("conversation record not found")

// Store defines the persistence contract for conversation records. Records
// are always written whole; there is no partial update.
type Store interface {
	// Get returns the stored record for the chat or ErrRecordNotFound.
	Get(ctx context.Context, chatID int64) (Record, error)
	// Put replaces the stored record for the chat.
	Put(ctx context.Context, chatID int64, rec Record) error
	// Delete removes the stored record for the chat.
	Delete(ctx context.Context, chatID int64) error
}
