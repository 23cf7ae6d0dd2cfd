package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarparkRefreshTask(t *testing.T) {
	task, err := NewCarparkRefreshTask("data/carparks.csv")
	require.NoError(t, err)
	assert.Equal(t, TaskTypeCarparkRefresh, task.Type())

	var payload CarparkRefreshPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "data/carparks.csv", payload.DatasetPath)
}

func TestNewStateCleanupTask(t *testing.T) {
	task, err := NewStateCleanupTask(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeStateCleanup, task.Type())

	var payload StateCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 24*time.Hour, payload.OlderThan)
}
