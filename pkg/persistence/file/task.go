package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dukex/bizflow/pkg/models"
)

// TaskRepository handles task file operations.
type TaskRepository struct {
	store *collection
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(root string) *TaskRepository {
	return &TaskRepository{store: newCollection(root, "tasks")}
}

// GetByID retrieves a task by its ID from the file system.
func (tr *TaskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	tr.store.mu.RLock()
	defer tr.store.mu.RUnlock()

	var task models.Task

	found, err := tr.store.read(id, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task %s: %w", id, err)
	}

	if !found {
		return nil, nil
	}

	return &task, nil
}

// Save saves a task to the file system.
func (tr *TaskRepository) Save(_ context.Context, task *models.Task) error {
	tr.store.mu.Lock()
	defer tr.store.mu.Unlock()

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	if err := tr.store.write(task.ID, task); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}

	return nil
}

// Delete removes a task by its ID.
func (tr *TaskRepository) Delete(_ context.Context, id string) error {
	tr.store.mu.Lock()
	defer tr.store.mu.Unlock()

	if _, err := tr.store.remove(id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	return nil
}

// GetByInstance retrieves the tasks of a process instance in creation order.
func (tr *TaskRepository) GetByInstance(_ context.Context, instanceID string) ([]*models.Task, error) {
	return tr.filter(func(task *models.Task) bool {
		return task.InstanceID() == instanceID
	})
}

// GetByAssignee retrieves the tasks assigned to a user in creation order.
func (tr *TaskRepository) GetByAssignee(_ context.Context, assigneeID string) ([]*models.Task, error) {
	return tr.filter(func(task *models.Task) bool {
		return task.AssigneeID == assigneeID
	})
}

func (tr *TaskRepository) filter(keep func(*models.Task) bool) ([]*models.Task, error) {
	tr.store.mu.RLock()
	defer tr.store.mu.RUnlock()

	all, err := loadAll[models.Task](tr.store)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	tasks := make([]*models.Task, 0)

	for _, task := range all {
		if keep(task) {
			tasks = append(tasks, task)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}
