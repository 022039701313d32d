package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/bizflow/pkg/models"
)

// TaskRepository handles task database operations.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sql.DB, logger *slog.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const selectTaskColumns = `
	SELECT id, title, description, status, priority, assignee_id, start_date, end_date,
		   process_id, process_instance_id, step_id, created_at, updated_at, completed_at
	FROM tasks`

// GetByID retrieves a task by its ID. It returns nil, nil when the task does not exist.
func (tr *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	row := tr.db.QueryRowContext(ctx, selectTaskColumns+` WHERE id = $1`, id)

	task, err := tr.scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	return task, nil
}

// Save upserts a task.
func (tr *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (
			id, title, description, status, priority, assignee_id, start_date, end_date,
			process_id, process_instance_id, step_id, created_at, updated_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			assignee_id = EXCLUDED.assignee_id,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			process_id = EXCLUDED.process_id,
			process_instance_id = EXCLUDED.process_instance_id,
			step_id = EXCLUDED.step_id,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err := tr.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssigneeID,
		task.StartDate,
		task.EndDate,
		nullString(task.ProcessID),
		nullString(task.ProcessInstanceID),
		nullString(task.StepID),
		task.CreatedAt,
		task.UpdatedAt,
		task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}

	return nil
}

// Delete removes a task by its ID.
func (tr *TaskRepository) Delete(ctx context.Context, id string) error {
	_, err := tr.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	return nil
}

// GetByInstance retrieves the tasks of a process instance in creation order.
func (tr *TaskRepository) GetByInstance(ctx context.Context, instanceID string) ([]*models.Task, error) {
	return tr.query(ctx, selectTaskColumns+` WHERE process_instance_id = $1 ORDER BY created_at ASC`, instanceID)
}

// GetByAssignee retrieves the tasks assigned to a user in creation order.
func (tr *TaskRepository) GetByAssignee(ctx context.Context, assigneeID string) ([]*models.Task, error) {
	return tr.query(ctx, selectTaskColumns+` WHERE assignee_id = $1 ORDER BY created_at ASC`, assigneeID)
}

func (tr *TaskRepository) query(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := tr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	defer closeRows(ctx, tr.logger, rows)

	tasks := make([]*models.Task, 0)

	for rows.Next() {
		task, err := tr.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (tr *TaskRepository) scanTask(row scanner) (*models.Task, error) {
	var (
		task              models.Task
		startDate         sql.NullTime
		endDate           sql.NullTime
		processID         sql.NullString
		processInstanceID sql.NullString
		stepID            sql.NullString
		completedAt       sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.AssigneeID,
		&startDate,
		&endDate,
		&processID,
		&processInstanceID,
		&stepID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	task.StartDate = startDate.Time
	task.EndDate = endDate.Time
	task.ProcessID = stringPtr(processID)
	task.ProcessInstanceID = stringPtr(processInstanceID)
	task.StepID = stringPtr(stepID)

	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}
