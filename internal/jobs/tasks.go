// Package jobs runs background maintenance: dataset refreshes and stale
// conversation cleanup.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCarparkRefresh = "carpark:refresh"
	TaskTypeStateCleanup   = "state:cleanup"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

type CarparkRefreshPayload struct {
	DatasetPath string `json:"dataset_path"`
}

type StateCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

func NewCarparkRefreshTask(datasetPath string) (*asynq.Task, error) {
	payload, err := json.Marshal(CarparkRefreshPayload{DatasetPath: datasetPath})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeCarparkRefresh, payload, asynq.Queue(QueueDefault)), nil
}

func NewStateCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(StateCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeStateCleanup, payload, asynq.Queue(QueueLow)), nil
}
