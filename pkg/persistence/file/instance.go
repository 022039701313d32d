package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
)

// InstanceRepository handles process instance file operations.
type InstanceRepository struct {
	store *collection
}

// NewInstanceRepository creates a new process instance repository.
func NewInstanceRepository(root string) *InstanceRepository {
	return &InstanceRepository{store: newCollection(root, "instances")}
}

// GetByID retrieves an instance by its ID from the file system.
func (ir *InstanceRepository) GetByID(_ context.Context, id string) (*models.ProcessInstance, error) {
	ir.store.mu.RLock()
	defer ir.store.mu.RUnlock()

	var instance models.ProcessInstance

	found, err := ir.store.read(id, &instance)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instance %s: %w", id, err)
	}

	if !found {
		return nil, nil
	}

	return &instance, nil
}

// Save stores the instance if its version matches the stored one.
func (ir *InstanceRepository) Save(_ context.Context, instance *models.ProcessInstance) error {
	ir.store.mu.Lock()
	defer ir.store.mu.Unlock()

	var current models.ProcessInstance

	found, err := ir.store.read(instance.ID, &current)
	if err != nil {
		return fmt.Errorf("failed to load instance %s: %w", instance.ID, err)
	}

	var storedVersion int64
	if found {
		storedVersion = current.Version
	}

	if storedVersion != instance.Version {
		return persistence.NewEntityError("Save", "instance", instance.ID, persistence.ErrVersionConflict)
	}

	next := *instance
	next.Version++
	next.UpdatedAt = time.Now().UTC()

	if err := ir.store.write(instance.ID, &next); err != nil {
		return fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	instance.Version = next.Version
	instance.UpdatedAt = next.UpdatedAt

	return nil
}

// GetByProcess retrieves all instances spawned from a definition, oldest first.
func (ir *InstanceRepository) GetByProcess(ctx context.Context, processID string) ([]*models.ProcessInstance, error) {
	return ir.filter(func(instance *models.ProcessInstance) bool {
		return instance.ProcessID == processID
	})
}

// GetByStatus retrieves all instances with a specific status, oldest first.
func (ir *InstanceRepository) GetByStatus(ctx context.Context, status models.InstanceStatus) ([]*models.ProcessInstance, error) {
	return ir.filter(func(instance *models.ProcessInstance) bool {
		return instance.Status == status
	})
}

// GetAll retrieves every instance, oldest first.
func (ir *InstanceRepository) GetAll(_ context.Context) ([]*models.ProcessInstance, error) {
	return ir.filter(func(*models.ProcessInstance) bool { return true })
}

func (ir *InstanceRepository) filter(keep func(*models.ProcessInstance) bool) ([]*models.ProcessInstance, error) {
	ir.store.mu.RLock()
	defer ir.store.mu.RUnlock()

	all, err := loadAll[models.ProcessInstance](ir.store)
	if err != nil {
		return nil, fmt.Errorf("failed to load instances: %w", err)
	}

	instances := make([]*models.ProcessInstance, 0, len(all))

	for _, instance := range all {
		if keep(instance) {
			instances = append(instances, instance)
		}
	}

	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].StartedAt.Before(instances[j].StartedAt)
	})

	return instances, nil
}
