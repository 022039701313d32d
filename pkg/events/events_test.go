package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypes(t *testing.T) {
	assert.Equal(t, TaskStatusChangedEvent, TaskStatusChanged{}.GetType())
	assert.Equal(t, ProcessInstanceStartedEvent, ProcessInstanceStarted{}.GetType())
	assert.Equal(t, ProcessInstanceAdvancedEvent, ProcessInstanceAdvanced{}.GetType())
	assert.Equal(t, ProcessInstanceStalledEvent, ProcessInstanceStalled{}.GetType())
	assert.Equal(t, ProcessInstanceCompletedEvent, ProcessInstanceCompleted{}.GetType())
	assert.Equal(t, ProcessTaskOrphanedEvent, ProcessTaskOrphaned{}.GetType())
}

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(ProcessInstanceStartedEvent, "proc-1")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ProcessInstanceStartedEvent, event.Type)
	assert.Equal(t, "proc-1", event.ProcessID)
	assert.False(t, event.Timestamp.IsZero())
	assert.NotNil(t, event.Metadata)

	other := NewBaseEvent(ProcessInstanceStartedEvent, "proc-1")
	assert.NotEqual(t, event.ID, other.ID)
}

func TestTaskStatusChanged_JSON(t *testing.T) {
	instanceID := "inst-1"
	original := &TaskStatusChanged{
		BaseEvent: NewBaseEvent(TaskStatusChangedEvent, "proc-1"),
		Task: &models.Task{
			ID:                "task-1",
			Title:             "Onboarding: Prepare laptop",
			Status:            models.TaskStatusDone,
			ProcessInstanceID: &instanceID,
		},
		Previous: models.TaskStatusInProgress,
		Current:  models.TaskStatusDone,
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"type":"task.status.changed"`)
	assert.Contains(t, string(jsonData), `"previous":"in_progress"`)
	assert.Contains(t, string(jsonData), `"process_instance_id":"inst-1"`)

	var decoded TaskStatusChanged

	err = json.Unmarshal(jsonData, &decoded)
	require.NoError(t, err)
	require.NotNil(t, decoded.Task)
	assert.Equal(t, "inst-1", decoded.Task.InstanceID())
	assert.Equal(t, models.TaskStatusInProgress, decoded.Previous)
	assert.Equal(t, models.TaskStatusDone, decoded.Current)
}
