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
)

// ProcessRepository handles process definition database operations.
type ProcessRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProcessRepository creates a new process definition repository.
func NewProcessRepository(db *sql.DB, logger *slog.Logger) *ProcessRepository {
	return &ProcessRepository{db: db, logger: logger}
}

const selectProcessColumns = `SELECT id, title, description, steps, created_at, updated_at FROM processes`

// GetAll returns every definition ordered by creation time.
func (pr *ProcessRepository) GetAll(ctx context.Context) ([]*models.BusinessProcess, error) {
	rows, err := pr.db.QueryContext(ctx, selectProcessColumns+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query processes: %w", err)
	}

	defer closeRows(ctx, pr.logger, rows)

	processes := make([]*models.BusinessProcess, 0)

	for rows.Next() {
		process, err := pr.scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}

		processes = append(processes, process)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processes: %w", err)
	}

	return processes, nil
}

// GetByID retrieves a definition by its ID. It returns nil, nil when the definition does not exist.
func (pr *ProcessRepository) GetByID(ctx context.Context, id string) (*models.BusinessProcess, error) {
	row := pr.db.QueryRowContext(ctx, selectProcessColumns+` WHERE id = $1`, id)

	process, err := pr.scanProcess(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan process: %w", err)
	}

	return process, nil
}

// Save upserts a definition.
func (pr *ProcessRepository) Save(ctx context.Context, process *models.BusinessProcess) error {
	return pr.save(ctx, pr.db, process)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (pr *ProcessRepository) save(ctx context.Context, db execer, process *models.BusinessProcess) error {
	now := time.Now().UTC()
	if process.CreatedAt.IsZero() {
		process.CreatedAt = now
	}

	process.UpdatedAt = now

	stepsJSON, err := json.Marshal(process.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `
		INSERT INTO processes (id, title, description, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at
	`

	_, err = db.ExecContext(ctx, query,
		process.ID,
		process.Title,
		process.Description,
		stepsJSON,
		process.CreatedAt,
		process.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save process %s: %w", process.ID, err)
	}

	return nil
}

// Delete removes a definition. Instances keep their process_id and become orphans.
func (pr *ProcessRepository) Delete(ctx context.Context, id string) error {
	_, err := pr.db.ExecContext(ctx, `DELETE FROM processes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete process %s: %w", id, err)
	}

	return nil
}

// ReplaceAll replaces the whole definition collection in one transaction.
func (pr *ProcessRepository) ReplaceAll(ctx context.Context, processes []*models.BusinessProcess) error {
	transaction, err := pr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = transaction.ExecContext(ctx, `DELETE FROM processes`)
	if err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to clear processes: %w", err)
	}

	for _, process := range processes {
		if err := pr.save(ctx, transaction, process); err != nil {
			_ = transaction.Rollback()

			return err
		}
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("failed to commit processes: %w", err)
	}

	return nil
}

func (pr *ProcessRepository) scanProcess(row scanner) (*models.BusinessProcess, error) {
	var (
		process   models.BusinessProcess
		stepsJSON []byte
	)

	err := row.Scan(
		&process.ID,
		&process.Title,
		&process.Description,
		&stepsJSON,
		&process.CreatedAt,
		&process.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stepsJSON, &process.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	return &process, nil
}
