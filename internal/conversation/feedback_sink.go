package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
)

// PostgresFeedbackSink persists received feedback alongside the full record
// snapshot, so the team can see the search that led to it.
type PostgresFeedbackSink struct {
	db  *sql.DB
	log *slog.Logger
}

var _ FeedbackSink = (*PostgresFeedbackSink)(nil)

// NewPostgresFeedbackSink creates a SQL-backed FeedbackSink.
func NewPostgresFeedbackSink(db *sql.DB, log *slog.Logger) *PostgresFeedbackSink {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresFeedbackSink{
		db:  db,
		log: log,
	}
}

func (s *PostgresFeedbackSink) Record(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal feedback record: %w", err)
	}

	const query = `
		INSERT INTO feedback (chat_id, type, message, record)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.db.ExecContext(ctx, query, rec.ChatID, rec.Feedback.Type, rec.Feedback.Message, data); err != nil {
		s.log.Error("failed to insert feedback", slog.Int64("chat_id", rec.ChatID), slog.Any("error", err))
		return fmt.Errorf("insert feedback: %w", err)
	}

	return nil
}
