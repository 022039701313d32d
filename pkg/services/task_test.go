package services_test

import (
	"context"
	"testing"

	"github.com/dukex/bizflow/pkg/events"
	"github.com/dukex/bizflow/pkg/mocks"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestTask_CreateDefaults(t *testing.T) {
	ctx := context.Background()
	svc := services.NewTask(newStore(t), nil)

	task, err := svc.Create(ctx, &models.Task{Title: "Order laptop", AssigneeID: "u1"})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.TaskStatusNotStarted, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.False(t, task.StartDate.IsZero())

	_, err = svc.Create(ctx, &models.Task{Title: "x", Status: "Выполнено"})
	assert.ErrorIs(t, err, services.ErrInvalidTaskStatus)

	_, err = svc.Create(ctx, &models.Task{})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestTask_UpdateStatusPublishesForProcessTasks(t *testing.T) {
	ctx := context.Background()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "inst-1", mock.MatchedBy(func(event events.TaskStatusChanged) bool {
		return event.Previous == models.TaskStatusNotStarted &&
			event.Current == models.TaskStatusDone &&
			event.Task.ID == "t1" &&
			event.ProcessID == "proc-1"
	})).Return(nil).Once()
	bus.On("Publish", mock.Anything, "inst-1", mock.MatchedBy(func(event events.TaskStatusChanged) bool {
		return event.Previous == models.TaskStatusDone && event.Current == models.TaskStatusInProgress
	})).Return(nil).Once()

	svc := services.NewTask(newStore(t), bus)

	_, err := svc.Create(ctx, &models.Task{
		ID:                "t1",
		Title:             "Approve",
		ProcessID:         ptr("proc-1"),
		ProcessInstanceID: ptr("inst-1"),
		StepID:            ptr("s1"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, "t1", models.TaskStatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	// unchanged status is not announced again
	_, err = svc.UpdateStatus(ctx, "t1", models.TaskStatusDone)
	require.NoError(t, err)

	reopened, err := svc.UpdateStatus(ctx, "t1", models.TaskStatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	bus.AssertExpectations(t)
	bus.AssertNumberOfCalls(t, "Publish", 2)
}

func TestTask_UpdateStatusSkipsFreeTasks(t *testing.T) {
	ctx := context.Background()

	bus := &mocks.MockEventBus{}
	svc := services.NewTask(newStore(t), bus)

	task, err := svc.Create(ctx, &models.Task{Title: "Free"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, task.ID, models.TaskStatusDone)
	require.NoError(t, err)

	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestTask_CompletedAtFollowsDoneStatuses(t *testing.T) {
	ctx := context.Background()
	svc := services.NewTask(newStore(t), nil, models.TaskStatusReview, models.TaskStatusDone)

	task, err := svc.Create(ctx, &models.Task{Title: "Audit"})
	require.NoError(t, err)

	reviewed, err := svc.UpdateStatus(ctx, task.ID, models.TaskStatusReview)
	require.NoError(t, err)
	require.NotNil(t, reviewed.CompletedAt)

	completedAt := *reviewed.CompletedAt

	done, err := svc.UpdateStatus(ctx, task.ID, models.TaskStatusDone)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, completedAt.Equal(*done.CompletedAt))

	reopened, err := svc.UpdateStatus(ctx, task.ID, models.TaskStatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	defaults := services.NewTask(newStore(t), nil)

	other, err := defaults.Create(ctx, &models.Task{Title: "Sign"})
	require.NoError(t, err)

	reviewed, err = defaults.UpdateStatus(ctx, other.ID, models.TaskStatusReview)
	require.NoError(t, err)
	assert.Nil(t, reviewed.CompletedAt)
}

func TestTask_UpdateStatusLabel(t *testing.T) {
	ctx := context.Background()
	svc := services.NewTask(newStore(t), nil)

	task, err := svc.Create(ctx, &models.Task{Title: "Sign"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatusLabel(ctx, task.ID, "Выполнено")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, updated.Status)

	_, err = svc.UpdateStatusLabel(ctx, task.ID, "Maybe")
	assert.ErrorIs(t, err, services.ErrInvalidTaskStatus)
}

func TestTask_FetchAndList(t *testing.T) {
	ctx := context.Background()
	svc := services.NewTask(newStore(t), nil)

	_, err := svc.FetchByID(ctx, "")
	assert.ErrorIs(t, err, services.ErrEmptyID)

	_, err = svc.FetchByID(ctx, "missing")
	assert.True(t, services.IsNotFoundError(err))

	for _, title := range []string{"a", "b"} {
		_, err = svc.Create(ctx, &models.Task{Title: title, AssigneeID: "u1", ProcessInstanceID: ptr("inst-1")})
		require.NoError(t, err)
	}

	byInstance, err := svc.ListByInstance(ctx, "inst-1")
	require.NoError(t, err)
	assert.Len(t, byInstance, 2)

	byAssignee, err := svc.ListByAssignee(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byAssignee, 2)

	require.NoError(t, svc.Delete(ctx, byInstance[0].ID))
	require.NoError(t, svc.Delete(ctx, byInstance[0].ID))

	byInstance, err = svc.ListByInstance(ctx, "inst-1")
	require.NoError(t, err)
	assert.Len(t, byInstance, 1)
}
