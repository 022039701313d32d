package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Process struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewProcess creates a new process definition service.
func NewProcess(persistence persistence.Persistence) *Process {
	return &Process{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// HealthCheck checks the health of the persistence layer.
func (p *Process) HealthCheck(ctx context.Context) (string, bool) {
	if p.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := p.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every definition.
func (p *Process) List(ctx context.Context) ([]*models.BusinessProcess, error) {
	processes, err := p.persistence.ProcessRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	return processes, nil
}

// FetchByID returns the definition or ErrProcessNotFound.
func (p *Process) FetchByID(ctx context.Context, id string) (*models.BusinessProcess, error) {
	process, err := p.persistence.ProcessRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get process: %w", err)
	}

	if process == nil {
		return nil, persistence.NewEntityError("FetchByID", "process", id, ErrProcessNotFound)
	}

	return process, nil
}

// Save replaces the definition with the same id, or adds it when new. A missing id
// is generated. Step order is rewritten to match array positions. Instances of the
// definition are stored separately and are never touched.
func (p *Process) Save(ctx context.Context, process *models.BusinessProcess) (*models.BusinessProcess, error) {
	existing, err := p.prepare(ctx, process)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		process.CreatedAt = existing.CreatedAt
	}

	err = p.persistence.ProcessRepository().Save(ctx, process)
	if err != nil {
		return nil, fmt.Errorf("failed to save process: %w", err)
	}

	return process, nil
}

// Delete removes a definition. Running instances are left in place; their tasks
// become orphaned references once completed.
func (p *Process) Delete(ctx context.Context, id string) error {
	if _, err := p.FetchByID(ctx, id); err != nil {
		return err
	}

	err := p.persistence.ProcessRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete process: %w", err)
	}

	return nil
}

// ReplaceAll validates every definition and swaps the whole collection.
func (p *Process) ReplaceAll(ctx context.Context, processes []*models.BusinessProcess) error {
	seen := make(map[string]struct{}, len(processes))

	for _, process := range processes {
		if _, err := p.prepare(ctx, process); err != nil {
			return err
		}

		if _, dup := seen[process.ID]; dup {
			return NewValidationError("ReplaceAll", "duplicate_process_id",
				fmt.Sprintf("process id %s appears more than once", process.ID), ErrInvalidRequest)
		}

		seen[process.ID] = struct{}{}
	}

	err := p.persistence.ProcessRepository().ReplaceAll(ctx, processes)
	if err != nil {
		return fmt.Errorf("failed to replace processes: %w", err)
	}

	return nil
}

// ImportMode selects how ImportDocument applies the imported definitions.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

// ProcessDocument is the import/export envelope for definitions.
type ProcessDocument struct {
	Processes []*models.BusinessProcess `json:"processes"`
}

// ImportDocument checks raw against the definition document schema and stores its
// definitions: merged one by one, or replacing the whole collection.
func (p *Process) ImportDocument(ctx context.Context, raw []byte, mode ImportMode) ([]*models.BusinessProcess, error) {
	err := validateProcessDocument(raw)
	if err != nil {
		return nil, err
	}

	var document ProcessDocument

	err = json.Unmarshal(raw, &document)
	if err != nil {
		return nil, NewValidationError("ImportDocument", "invalid_json", err.Error(), ErrInvalidDocument)
	}

	switch mode {
	case ImportReplace:
		err = p.ReplaceAll(ctx, document.Processes)
		if err != nil {
			return nil, err
		}

		return document.Processes, nil
	case ImportMerge, "":
		saved := make([]*models.BusinessProcess, 0, len(document.Processes))

		for _, process := range document.Processes {
			result, err := p.Save(ctx, process)
			if err != nil {
				return saved, err
			}

			saved = append(saved, result)
		}

		return saved, nil
	default:
		return nil, NewValidationError("ImportDocument", "invalid_mode",
			fmt.Sprintf("unknown import mode %q", mode), ErrInvalidRequest)
	}
}

// Export returns every definition wrapped in a ProcessDocument.
func (p *Process) Export(ctx context.Context) (*ProcessDocument, error) {
	processes, err := p.List(ctx)
	if err != nil {
		return nil, err
	}

	return &ProcessDocument{Processes: processes}, nil
}

// prepare validates and normalizes process in place and returns the stored version, if any.
func (p *Process) prepare(ctx context.Context, process *models.BusinessProcess) (*models.BusinessProcess, error) {
	if process == nil {
		return nil, NewValidationError("Save", "nil_process", "process cannot be nil", ErrInvalidRequest)
	}

	err := p.validate.Struct(process)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, NewValidationError("Save", "validation_failed", validationErrors.Error(), ErrInvalidRequest)
		}

		return nil, fmt.Errorf("failed to validate process: %w", err)
	}

	stepIDs := make(map[string]struct{}, len(process.Steps))

	for i, step := range process.Steps {
		if step == nil {
			return nil, NewValidationError("Save", "nil_step", fmt.Sprintf("step %d is empty", i), ErrInvalidRequest)
		}

		if _, dup := stepIDs[step.ID]; dup {
			return nil, NewValidationError("Save", "duplicate_step_id",
				fmt.Sprintf("step id %s appears more than once", step.ID), ErrDuplicateStepID)
		}

		stepIDs[step.ID] = struct{}{}
		step.Order = i
	}

	if process.ID == "" {
		process.ID = uuid.NewString()
	}

	existing, err := p.persistence.ProcessRepository().GetByID(ctx, process.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get process: %w", err)
	}

	now := time.Now().UTC()
	if process.CreatedAt.IsZero() {
		process.CreatedAt = now
	}

	process.UpdatedAt = now
	process.Instances = nil

	return existing, nil
}
