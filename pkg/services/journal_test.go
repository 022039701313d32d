package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence/file"
	"github.com/dukex/bizflow/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInstance(
	t *testing.T,
	store *file.Persistence,
	id, processID, stepID string,
	status models.InstanceStatus,
	lastTaskStatus models.TaskStatus,
) *models.ProcessInstance {
	t.Helper()

	ctx := context.Background()

	task := &models.Task{
		ID:                id + "-task",
		Title:             "Task of " + id,
		Status:            lastTaskStatus,
		ProcessID:         ptr(processID),
		ProcessInstanceID: ptr(id),
		StepID:            ptr(stepID),
	}
	require.NoError(t, store.TaskRepository().Save(ctx, task))

	instance := &models.ProcessInstance{
		ID:            id,
		ProcessID:     processID,
		CurrentStepID: ptr(stepID),
		Status:        status,
		StartedAt:     time.Now().UTC(),
		TaskIDs:       []string{task.ID},
	}
	require.NoError(t, store.InstanceRepository().Save(ctx, instance))

	return instance
}

func TestJournal_Instances(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.ProcessRepository().Save(ctx, &models.BusinessProcess{
		ID:    "purchase",
		Title: "Purchase",
		Steps: []*models.ProcessStep{step("request", "pos-a"), step("approve", "pos-b")},
	}))

	seedInstance(t, store, "running", "purchase", "request", models.InstanceStatusActive, models.TaskStatusInProgress)
	seedInstance(t, store, "waiting", "purchase", "request", models.InstanceStatusActive, models.TaskStatusDone)
	seedInstance(t, store, "orphan", "deleted", "request", models.InstanceStatusActive, models.TaskStatusNotStarted)

	journal := services.NewJournal(store)

	views, err := journal.Instances(ctx, services.InstanceFilter{})
	require.NoError(t, err)
	require.Len(t, views, 3)

	byID := make(map[string]*services.InstanceView, len(views))
	for _, view := range views {
		byID[view.ID] = view
	}

	assert.Equal(t, "Purchase", byID["running"].ProcessTitle)
	assert.Equal(t, "Step request", byID["running"].CurrentStepTitle)
	assert.False(t, byID["running"].Stalled)
	assert.Len(t, byID["running"].Tasks, 1)

	assert.True(t, byID["waiting"].Stalled)

	assert.True(t, byID["orphan"].Orphaned)
	assert.Empty(t, byID["orphan"].ProcessTitle)

	filtered, err := journal.Instances(ctx, services.InstanceFilter{ProcessID: "purchase"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	_, err = journal.Instances(ctx, services.InstanceFilter{Status: "frozen"})
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
}

func TestJournal_StatusFilterAndStalledPause(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.ProcessRepository().Save(ctx, &models.BusinessProcess{
		ID: "purchase", Title: "Purchase", Steps: []*models.ProcessStep{step("request", "pos-a")},
	}))

	stalled := seedInstance(t, store, "stalled", "purchase", "request", models.InstanceStatusActive, models.TaskStatusDone)
	stalled.Status = models.InstanceStatusPaused
	stalled.StallReason = "no resolvable assignee"
	require.NoError(t, store.InstanceRepository().Save(ctx, stalled))

	seedInstance(t, store, "active", "purchase", "request", models.InstanceStatusActive, models.TaskStatusReview)

	journal := services.NewJournal(store)

	views, err := journal.Instances(ctx, services.InstanceFilter{Status: models.InstanceStatusPaused})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "stalled", views[0].ID)
	assert.True(t, views[0].Stalled)

	// review counts as done for this journal
	withReview := services.NewJournal(store, models.TaskStatusReview, models.TaskStatusDone)

	view, err := withReview.Instance(ctx, "active")
	require.NoError(t, err)
	assert.True(t, view.Stalled)

	_, err = journal.Instance(ctx, "missing")
	assert.True(t, services.IsNotFoundError(err))
}

func TestJournal_ProcessFillsInstances(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.ProcessRepository().Save(ctx, &models.BusinessProcess{
		ID: "purchase", Title: "Purchase", Steps: []*models.ProcessStep{step("request", "pos-a")},
	}))

	seedInstance(t, store, "one", "purchase", "request", models.InstanceStatusActive, models.TaskStatusDone)
	seedInstance(t, store, "two", "purchase", "request", models.InstanceStatusCompleted, models.TaskStatusDone)

	process, err := services.NewJournal(store).Process(ctx, "purchase")
	require.NoError(t, err)
	assert.Len(t, process.Instances, 2)

	_, err = services.NewJournal(store).Process(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrProcessNotFound)
}
