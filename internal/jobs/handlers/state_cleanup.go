package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/parkcheep/parkcheep-bot/internal/conversation"
	"github.com/parkcheep/parkcheep-bot/internal/jobs"
)

// StaleLister is implemented by stores that can enumerate abandoned
// conversations. The memory backend has no enumeration and skips cleanup.
type StaleLister interface {
	StaleChatIDs(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// StateCleanupHandler removes conversation records abandoned longer than the
// payload's age. A deleted record behaves exactly like an unknown chat: the
// next message gets a fresh greeting.
type StateCleanupHandler struct {
	store conversation.Store
	log   *slog.Logger
}

func NewStateCleanupHandler(store conversation.Store, log *slog.Logger) *StateCleanupHandler {
	if log == nil {
		log = slog.Default()
	}

	return &StateCleanupHandler{
		store: store,
		log:   log,
	}
}

func (h *StateCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.StateCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "state cleanup: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()),
		)
		return err
	}

	lister, ok := h.store.(StaleLister)
	if !ok {
		h.log.InfoContext(ctx, "state cleanup: store does not support enumeration, skipping")
		return nil
	}

	cutoff := time.Now().UTC().Add(-payload.OlderThan)

	chatIDs, err := lister.StaleChatIDs(ctx, cutoff)
	if err != nil {
		return err
	}

	removed := 0
	for _, chatID := range chatIDs {
		if err := h.store.Delete(ctx, chatID); err != nil {
			h.log.ErrorContext(ctx, "state cleanup: failed to delete record",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}

	h.log.InfoContext(ctx, "state cleanup: finished",
		slog.Int("candidates", len(chatIDs)),
		slog.Int("removed", removed),
	)

	return nil
}
