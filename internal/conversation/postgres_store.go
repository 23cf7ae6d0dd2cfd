package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PostgresStore persists conversation records in the chat_states table as a
// JSON document keyed by chat id.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresStore creates a SQL-backed Store.
func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresStore{
		db:  db,
		log: log,
	}
}

// Get returns the stored record or ErrRecordNotFound when absent.
func (s *PostgresStore) Get(ctx context.Context, chatID int64) (Record, error) {
	const query = `
		SELECT record
		FROM chat_states
		WHERE chat_id = $1
	`

	var data []byte
	if err := s.db.QueryRowContext(ctx, query, chatID).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}

		s.log.Error("failed to fetch conversation record", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return Record{}, fmt.Errorf("select chat state: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Error("failed to decode conversation record", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return Record{}, fmt.Errorf("unmarshal chat state: %w", err)
	}

	return rec, nil
}

// Put replaces the stored record, inserting on first write.
func (s *PostgresStore) Put(ctx context.Context, chatID int64, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal chat state: %w", err)
	}

	const query = `
		INSERT INTO chat_states (chat_id, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id)
		DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, chatID, data, rec.UpdatedAt); err != nil {
		s.log.Error("failed to save conversation record", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return fmt.Errorf("upsert chat state: %w", err)
	}

	return nil
}

// Delete removes the stored record for the chat.
func (s *PostgresStore) Delete(ctx context.Context, chatID int64) error {
	const query = `
		DELETE FROM chat_states
		WHERE chat_id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, chatID); err != nil {
		s.log.Error("failed to delete conversation record", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return fmt.Errorf("delete chat state: %w", err)
	}

	return nil
}

// StaleChatIDs returns chats whose records were last updated before cutoff.
func (s *PostgresStore) StaleChatIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	const query = `
		SELECT chat_id
		FROM chat_states
		WHERE updated_at < $1
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select stale chat states: %w", err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("scan stale chat state: %w", err)
		}
		result = append(result, chatID)
	}

	return result, rows.Err()
}
