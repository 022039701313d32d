package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
)

// InstanceRepository handles process instance database operations.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewInstanceRepository creates a new process instance repository.
func NewInstanceRepository(db *sql.DB, logger *slog.Logger) *InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

const selectInstanceColumns = `
	SELECT id, process_id, current_step_id, status, started_at, completed_at,
		   task_ids, started_by, stall_reason, stalled_at, pause_reason, version, updated_at
	FROM process_instances`

// GetByID retrieves an instance by its ID. It returns nil, nil when the instance does not exist.
func (ir *InstanceRepository) GetByID(ctx context.Context, id string) (*models.ProcessInstance, error) {
	row := ir.db.QueryRowContext(ctx, selectInstanceColumns+` WHERE id = $1`, id)

	instance, err := ir.scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	return instance, nil
}

// Save inserts a new instance (Version 0) or updates an existing one guarded by its version.
func (ir *InstanceRepository) Save(ctx context.Context, instance *models.ProcessInstance) error {
	taskIDsJSON, err := json.Marshal(taskIDsOrEmpty(instance.TaskIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal task ids: %w", err)
	}

	now := time.Now().UTC()
	nextVersion := instance.Version + 1

	var result sql.Result

	if instance.Version == 0 {
		result, err = ir.db.ExecContext(ctx, `
			INSERT INTO process_instances (
				id, process_id, current_step_id, status, started_at, completed_at,
				task_ids, started_by, stall_reason, stalled_at, version, updated_at, pause_reason
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO NOTHING`,
			instance.ID,
			instance.ProcessID,
			nullString(instance.CurrentStepID),
			instance.Status,
			instance.StartedAt,
			instance.CompletedAt,
			taskIDsJSON,
			instance.StartedBy,
			instance.StallReason,
			instance.StalledAt,
			nextVersion,
			now,
			instance.PauseReason,
		)
	} else {
		result, err = ir.db.ExecContext(ctx, `
			UPDATE process_instances SET
				process_id = $2,
				current_step_id = $3,
				status = $4,
				started_at = $5,
				completed_at = $6,
				task_ids = $7,
				started_by = $8,
				stall_reason = $9,
				stalled_at = $10,
				version = $11,
				updated_at = $12,
				pause_reason = $14
			WHERE id = $1 AND version = $13`,
			instance.ID,
			instance.ProcessID,
			nullString(instance.CurrentStepID),
			instance.Status,
			instance.StartedAt,
			instance.CompletedAt,
			taskIDsJSON,
			instance.StartedBy,
			instance.StallReason,
			instance.StalledAt,
			nextVersion,
			now,
			instance.Version,
			instance.PauseReason,
		)
	}

	if err != nil {
		return fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for instance %s: %w", instance.ID, err)
	}

	if affected == 0 {
		return persistence.NewEntityError("Save", "instance", instance.ID, persistence.ErrVersionConflict)
	}

	instance.Version = nextVersion
	instance.UpdatedAt = now

	return nil
}

// GetByProcess retrieves all instances spawned from a definition, oldest first.
func (ir *InstanceRepository) GetByProcess(ctx context.Context, processID string) ([]*models.ProcessInstance, error) {
	return ir.query(ctx, selectInstanceColumns+` WHERE process_id = $1 ORDER BY started_at ASC`, processID)
}

// GetByStatus retrieves all instances with a specific status, oldest first.
func (ir *InstanceRepository) GetByStatus(ctx context.Context, status models.InstanceStatus) ([]*models.ProcessInstance, error) {
	return ir.query(ctx, selectInstanceColumns+` WHERE status = $1 ORDER BY started_at ASC`, status)
}

// GetAll retrieves every instance, oldest first.
func (ir *InstanceRepository) GetAll(ctx context.Context) ([]*models.ProcessInstance, error) {
	return ir.query(ctx, selectInstanceColumns+` ORDER BY started_at ASC`)
}

func (ir *InstanceRepository) query(ctx context.Context, query string, args ...any) ([]*models.ProcessInstance, error) {
	rows, err := ir.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}

	defer closeRows(ctx, ir.logger, rows)

	instances := make([]*models.ProcessInstance, 0)

	for rows.Next() {
		instance, err := ir.scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instances: %w", err)
	}

	return instances, nil
}

func (ir *InstanceRepository) scanInstance(row scanner) (*models.ProcessInstance, error) {
	var (
		instance      models.ProcessInstance
		currentStepID sql.NullString
		completedAt   sql.NullTime
		stalledAt     sql.NullTime
		taskIDsJSON   []byte
	)

	err := row.Scan(
		&instance.ID,
		&instance.ProcessID,
		&currentStepID,
		&instance.Status,
		&instance.StartedAt,
		&completedAt,
		&taskIDsJSON,
		&instance.StartedBy,
		&instance.StallReason,
		&stalledAt,
		&instance.PauseReason,
		&instance.Version,
		&instance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	instance.CurrentStepID = stringPtr(currentStepID)

	if completedAt.Valid {
		instance.CompletedAt = &completedAt.Time
	}

	if stalledAt.Valid {
		instance.StalledAt = &stalledAt.Time
	}

	if err := json.Unmarshal(taskIDsJSON, &instance.TaskIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task ids: %w", err)
	}

	return &instance, nil
}

func taskIDsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}

	return ids
}
