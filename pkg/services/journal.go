package services

import (
	"context"
	"fmt"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
)

// InstanceView is the journal projection of one process instance.
type InstanceView struct {
	*models.ProcessInstance

	ProcessTitle     string         `json:"process_title,omitempty"`
	CurrentStepTitle string         `json:"current_step_title,omitempty"`
	Tasks            []*models.Task `json:"tasks"`

	// Stalled is set for instances paused on an unresolvable step and for active
	// instances whose latest task is done while no next task exists.
	Stalled bool `json:"stalled"`

	// Orphaned is set when the owning definition was deleted.
	Orphaned bool `json:"orphaned"`
}

// InstanceFilter narrows Journal.Instances. Empty fields match everything.
type InstanceFilter struct {
	ProcessID string
	Status    models.InstanceStatus
}

// Journal provides read-only views over instances and their tasks.
type Journal struct {
	persistence persistence.Persistence
	done        map[models.TaskStatus]struct{}
}

// NewJournal creates a journal. doneStatuses defaults to the done status.
func NewJournal(persistence persistence.Persistence, doneStatuses ...models.TaskStatus) *Journal {
	return &Journal{persistence: persistence, done: doneSet(doneStatuses)}
}

func doneSet(statuses []models.TaskStatus) map[models.TaskStatus]struct{} {
	if len(statuses) == 0 {
		statuses = []models.TaskStatus{models.TaskStatusDone}
	}

	done := make(map[models.TaskStatus]struct{}, len(statuses))
	for _, status := range statuses {
		done[status] = struct{}{}
	}

	return done
}

// Instances lists instance views, oldest first.
func (j *Journal) Instances(ctx context.Context, filter InstanceFilter) ([]*InstanceView, error) {
	if filter.Status != "" && !validInstanceStatus(filter.Status) {
		return nil, NewValidationError("Instances", "invalid_status", string(filter.Status), ErrInvalidStatus)
	}

	repo := j.persistence.InstanceRepository()

	var (
		instances []*models.ProcessInstance
		err       error
	)

	switch {
	case filter.ProcessID != "":
		instances, err = repo.GetByProcess(ctx, filter.ProcessID)
	case filter.Status != "":
		instances, err = repo.GetByStatus(ctx, filter.Status)
	default:
		instances, err = repo.GetAll(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	processes := make(map[string]*models.BusinessProcess)
	views := make([]*InstanceView, 0, len(instances))

	for _, instance := range instances {
		if filter.Status != "" && instance.Status != filter.Status {
			continue
		}

		process, cached := processes[instance.ProcessID]
		if !cached {
			process, err = j.persistence.ProcessRepository().GetByID(ctx, instance.ProcessID)
			if err != nil {
				return nil, fmt.Errorf("failed to get process: %w", err)
			}

			processes[instance.ProcessID] = process
		}

		view, err := j.view(ctx, process, instance)
		if err != nil {
			return nil, err
		}

		views = append(views, view)
	}

	return views, nil
}

// Instance returns the view of one instance or ErrInstanceNotFound.
func (j *Journal) Instance(ctx context.Context, id string) (*InstanceView, error) {
	instance, err := j.persistence.InstanceRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	if instance == nil {
		return nil, persistence.NewEntityError("Instance", "instance", id, ErrInstanceNotFound)
	}

	process, err := j.persistence.ProcessRepository().GetByID(ctx, instance.ProcessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get process: %w", err)
	}

	return j.view(ctx, process, instance)
}

// Process returns the definition with its instances projection filled.
func (j *Journal) Process(ctx context.Context, id string) (*models.BusinessProcess, error) {
	process, err := j.persistence.ProcessRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get process: %w", err)
	}

	if process == nil {
		return nil, persistence.NewEntityError("Process", "process", id, ErrProcessNotFound)
	}

	instances, err := j.persistence.InstanceRepository().GetByProcess(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	process.Instances = instances

	return process, nil
}

func (j *Journal) view(ctx context.Context, process *models.BusinessProcess, instance *models.ProcessInstance) (*InstanceView, error) {
	tasks, err := j.persistence.TaskRepository().GetByInstance(ctx, instance.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of instance %s: %w", instance.ID, err)
	}

	view := &InstanceView{
		ProcessInstance: instance,
		Tasks:           tasks,
		Orphaned:        process == nil,
	}

	if process != nil {
		view.ProcessTitle = process.Title

		if step := process.Step(instance.CurrentStep()); step != nil {
			view.CurrentStepTitle = step.Title
		}
	}

	view.Stalled = instance.Stalled() || j.awaitingNextStep(instance, tasks)

	return view, nil
}

// awaitingNextStep reports an active instance whose latest task is finished.
func (j *Journal) awaitingNextStep(instance *models.ProcessInstance, tasks []*models.Task) bool {
	if instance.Status != models.InstanceStatusActive {
		return false
	}

	lastID := instance.LastTaskID()

	for _, task := range tasks {
		if task.ID == lastID {
			_, done := j.done[task.Status]

			return done
		}
	}

	return false
}

func validInstanceStatus(status models.InstanceStatus) bool {
	switch status {
	case models.InstanceStatusActive, models.InstanceStatusCompleted, models.InstanceStatusPaused:
		return true
	default:
		return false
	}
}
