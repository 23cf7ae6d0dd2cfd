// Package handlers implements the background task processors.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/parkcheep/parkcheep-bot/internal/carpark"
	"github.com/parkcheep/parkcheep-bot/internal/jobs"
)

// CarparkRefreshHandler reloads the carpark dataset from disk, swaps the
// in-memory directory, and persists the snapshot to SQLite so a restart does
// not need the dataset file.
type CarparkRefreshHandler struct {
	directory *carpark.Directory
	store     *carpark.SQLiteStore
	log       *slog.Logger
}

func NewCarparkRefreshHandler(directory *carpark.Directory, store *carpark.SQLiteStore, log *slog.Logger) *CarparkRefreshHandler {
	if log == nil {
		log = slog.Default()
	}

	return &CarparkRefreshHandler{
		directory: directory,
		store:     store,
		log:       log,
	}
}

func (h *CarparkRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.CarparkRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "carpark refresh: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()),
		)
		return err
	}

	carparks, err := carpark.LoadFile(payload.DatasetPath)
	if err != nil {
		h.log.ErrorContext(ctx, "carpark refresh: failed to load dataset",
			slog.String("path", payload.DatasetPath),
			slog.String("error", err.Error()),
		)
		return err
	}

	h.directory.Replace(carparks)

	if h.store != nil {
		if err := h.store.Save(ctx, carparks); err != nil {
			h.log.ErrorContext(ctx, "carpark refresh: failed to persist snapshot",
				slog.String("error", err.Error()),
			)
			return err
		}
	}

	h.log.InfoContext(ctx, "carpark refresh: dataset reloaded", slog.Int("carparks", len(carparks)))

	return nil
}
