package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dukex/bizflow/pkg/models"
)

// ProcessRepository handles process definition file operations.
type ProcessRepository struct {
	root  string
	store *collection
}

// NewProcessRepository creates a new process definition repository.
func NewProcessRepository(root string) *ProcessRepository {
	return &ProcessRepository{root: root, store: newCollection(root, "processes")}
}

// GetAll returns every definition ordered by creation time.
func (pr *ProcessRepository) GetAll(_ context.Context) ([]*models.BusinessProcess, error) {
	pr.store.mu.RLock()
	defer pr.store.mu.RUnlock()

	processes, err := loadAll[models.BusinessProcess](pr.store)
	if err != nil {
		return nil, fmt.Errorf("failed to load processes: %w", err)
	}

	sort.SliceStable(processes, func(i, j int) bool {
		return processes[i].CreatedAt.Before(processes[j].CreatedAt)
	})

	return processes, nil
}

// GetByID retrieves a definition by its ID from the file system.
func (pr *ProcessRepository) GetByID(_ context.Context, id string) (*models.BusinessProcess, error) {
	pr.store.mu.RLock()
	defer pr.store.mu.RUnlock()

	var process models.BusinessProcess

	found, err := pr.store.read(id, &process)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch process %s: %w", id, err)
	}

	if !found {
		return nil, nil
	}

	return &process, nil
}

// Save replaces the definition with the same id, or stores it as new.
func (pr *ProcessRepository) Save(_ context.Context, process *models.BusinessProcess) error {
	pr.store.mu.Lock()
	defer pr.store.mu.Unlock()

	return pr.save(process)
}

func (pr *ProcessRepository) save(process *models.BusinessProcess) error {
	now := time.Now().UTC()
	if process.CreatedAt.IsZero() {
		process.CreatedAt = now
	}

	process.UpdatedAt = now

	stored := *process
	stored.Instances = nil

	if err := pr.store.write(process.ID, &stored); err != nil {
		return fmt.Errorf("failed to save process %s: %w", process.ID, err)
	}

	return nil
}

// Delete removes a definition by its ID. Deleting a missing definition is not an error.
func (pr *ProcessRepository) Delete(_ context.Context, id string) error {
	pr.store.mu.Lock()
	defer pr.store.mu.Unlock()

	if _, err := pr.store.remove(id); err != nil {
		return fmt.Errorf("failed to delete process %s: %w", id, err)
	}

	return nil
}

// ReplaceAll writes the new collection into a staging directory and swaps it with the current one.
func (pr *ProcessRepository) ReplaceAll(_ context.Context, processes []*models.BusinessProcess) error {
	pr.store.mu.Lock()
	defer pr.store.mu.Unlock()

	suffix := strconv.FormatInt(time.Now().UnixNano(), 10)
	staging := newCollection(pr.root, "processes.staging-"+suffix)

	for _, process := range processes {
		stagingRepo := &ProcessRepository{root: pr.root, store: staging}
		if err := stagingRepo.save(process); err != nil {
			_ = os.RemoveAll(staging.dir)

			return err
		}
	}

	if err := os.MkdirAll(staging.dir, 0750); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	retired := filepath.Join(pr.root, "processes.retired-"+suffix)

	err := os.Rename(pr.store.dir, retired)
	if err != nil && !os.IsNotExist(err) {
		_ = os.RemoveAll(staging.dir)

		return fmt.Errorf("failed to retire current processes: %w", err)
	}

	if err := os.Rename(staging.dir, pr.store.dir); err != nil {
		_ = os.Rename(retired, pr.store.dir)

		return fmt.Errorf("failed to install new processes: %w", err)
	}

	if err := os.RemoveAll(retired); err != nil {
		return fmt.Errorf("failed to remove retired processes: %w", err)
	}

	return nil
}
