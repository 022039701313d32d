// Package persistence provides the storage abstraction for process definitions,
// process instances, tasks and the org directory.
package persistence

import (
	"context"

	"github.com/dukex/bizflow/pkg/models"
)

// Persistence groups the repositories of one storage backend.
type Persistence interface {
	ProcessRepository() ProcessRepository
	InstanceRepository() InstanceRepository
	TaskRepository() TaskRepository
	OrgRepository() OrgRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ProcessRepository stores process definitions. GetByID returns nil, nil when
// the definition does not exist.
type ProcessRepository interface {
	GetAll(ctx context.Context) ([]*models.BusinessProcess, error)
	GetByID(ctx context.Context, id string) (*models.BusinessProcess, error)
	Save(ctx context.Context, process *models.BusinessProcess) error
	Delete(ctx context.Context, id string) error

	// ReplaceAll atomically replaces the whole definition collection.
	ReplaceAll(ctx context.Context, processes []*models.BusinessProcess) error
}

// InstanceRepository stores process instances independently of their definition.
//
// Save is a compare-and-swap on Version: the stored version must equal
// instance.Version (0 for a new instance), otherwise ErrVersionConflict is
// returned. On success instance.Version is incremented.
type InstanceRepository interface {
	GetByID(ctx context.Context, id string) (*models.ProcessInstance, error)
	Save(ctx context.Context, instance *models.ProcessInstance) error
	GetByProcess(ctx context.Context, processID string) ([]*models.ProcessInstance, error)
	GetByStatus(ctx context.Context, status models.InstanceStatus) ([]*models.ProcessInstance, error)
	GetAll(ctx context.Context) ([]*models.ProcessInstance, error)
}

// TaskRepository stores task records. GetByID returns nil, nil when missing.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	GetByInstance(ctx context.Context, instanceID string) ([]*models.Task, error)
	GetByAssignee(ctx context.Context, assigneeID string) ([]*models.Task, error)
}

// OrgRepository stores the org directory snapshot read by the engine.
type OrgRepository interface {
	Positions(ctx context.Context) ([]*models.OrgPosition, error)
	Users(ctx context.Context) ([]*models.User, error)
	SavePosition(ctx context.Context, position *models.OrgPosition) error
	DeletePosition(ctx context.Context, id string) error
	SaveUser(ctx context.Context, user *models.User) error
}
