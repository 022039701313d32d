package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/events"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Task is the task collaborator: it owns task records and announces status changes.
type Task struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	done        map[models.TaskStatus]struct{}
	validate    *validator.Validate
	now         func() time.Time
}

// NewTask creates a new task service. Status changes of process tasks are
// published on publisher; a nil publisher disables publishing. Moving into one
// of doneStatuses (default done) stamps CompletedAt.
func NewTask(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	doneStatuses ...models.TaskStatus,
) *Task {
	return &Task{
		persistence: persistence,
		publisher:   publisher,
		done:        doneSet(doneStatuses),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}
}

// Create stores a new task and returns it with its id and timestamps filled.
func (t *Task) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task == nil {
		return nil, NewValidationError("Create", "nil_task", "task cannot be nil", ErrInvalidRequest)
	}

	if task.Status == "" {
		task.Status = models.TaskStatusNotStarted
	}

	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	if !task.Status.Valid() {
		return nil, NewValidationError("Create", "invalid_status", string(task.Status), ErrInvalidTaskStatus)
	}

	err := t.validate.Struct(task)
	if err != nil {
		return nil, NewValidationError("Create", "validation_failed", err.Error(), ErrInvalidRequest)
	}

	now := t.now().UTC()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	task.CreatedAt = now
	task.UpdatedAt = now

	if task.StartDate.IsZero() {
		task.StartDate = now
	}

	err = t.persistence.TaskRepository().Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// UpdateStatus writes the task's status and, for tasks that belong to a process
// instance, publishes a TaskStatusChanged event with the previous status.
func (t *Task) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, NewValidationError("UpdateStatus", "invalid_status", string(status), ErrInvalidTaskStatus)
	}

	task, err := t.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := task.Status
	now := t.now().UTC()

	task.Status = status
	task.UpdatedAt = now

	_, wasDone := t.done[previous]
	_, isDone := t.done[status]

	switch {
	case isDone && !wasDone:
		task.CompletedAt = &now
	case !isDone:
		task.CompletedAt = nil
	}

	err = t.persistence.TaskRepository().Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	if t.publisher != nil && task.InstanceID() != "" && previous != status {
		err = t.publisher.Publish(ctx, task.InstanceID(), events.TaskStatusChanged{
			BaseEvent: events.NewBaseEvent(events.TaskStatusChangedEvent, task.ProcessRef()),
			Task:      task,
			Previous:  previous,
			Current:   status,
		})
		if err != nil {
			return task, fmt.Errorf("task %s updated but status change was not published: %w", id, err)
		}
	}

	return task, nil
}

// UpdateStatusLabel accepts a board label such as "Done" or a localized synonym.
func (t *Task) UpdateStatusLabel(ctx context.Context, id, label string) (*models.Task, error) {
	status, ok := models.ParseTaskStatus(label)
	if !ok {
		return nil, NewValidationError("UpdateStatus", "invalid_status", label, ErrInvalidTaskStatus)
	}

	return t.UpdateStatus(ctx, id, status)
}

// FetchByID returns the task or ErrTaskNotFound.
func (t *Task) FetchByID(ctx context.Context, id string) (*models.Task, error) {
	if id == "" {
		return nil, NewValidationError("FetchByID", "empty_id", "task id cannot be empty", ErrEmptyID)
	}

	task, err := t.persistence.TaskRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if task == nil {
		return nil, persistence.NewEntityError("FetchByID", "task", id, ErrTaskNotFound)
	}

	return task, nil
}

func (t *Task) ListByInstance(ctx context.Context, instanceID string) ([]*models.Task, error) {
	tasks, err := t.persistence.TaskRepository().GetByInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of instance %s: %w", instanceID, err)
	}

	return tasks, nil
}

func (t *Task) ListByAssignee(ctx context.Context, assigneeID string) ([]*models.Task, error) {
	tasks, err := t.persistence.TaskRepository().GetByAssignee(ctx, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of assignee %s: %w", assigneeID, err)
	}

	return tasks, nil
}

// Delete removes a task. Deleting a missing task is not an error.
func (t *Task) Delete(ctx context.Context, id string) error {
	err := t.persistence.TaskRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}
