// Package models defines the domain models of the business process engine.
package models

import "time"

// AssigneeType tells how a step's AssigneeID must be interpreted.
type AssigneeType string

const (
	AssigneeTypePosition AssigneeType = "position" // AssigneeID is an OrgPosition id
	AssigneeTypeUser     AssigneeType = "user"     // AssigneeID is a User id
)

// InstanceStatus represents the lifecycle state of a process instance.
type InstanceStatus string

const (
	InstanceStatusActive    InstanceStatus = "active"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusPaused    InstanceStatus = "paused"
)

// BusinessProcess is a named, ordered template of steps.
//
// Instances is a read projection filled by the journal; instances are persisted in
// their own collection and never written through the definition.
type BusinessProcess struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"                 validate:"required"`
	Description string             `json:"description,omitempty"`
	Steps       []*ProcessStep     `json:"steps"                 validate:"dive"`
	Instances   []*ProcessInstance `json:"instances,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// StepIndex returns the array position of the step with the given id, or -1.
func (p *BusinessProcess) StepIndex(stepID string) int {
	for i, step := range p.Steps {
		if step.ID == stepID {
			return i
		}
	}

	return -1
}

// Step returns the step with the given id, or nil.
func (p *BusinessProcess) Step(stepID string) *ProcessStep {
	if i := p.StepIndex(stepID); i >= 0 {
		return p.Steps[i]
	}

	return nil
}

// ProcessStep is one unit of work within a process definition.
type ProcessStep struct {
	ID           string       `json:"id"                    validate:"required"`
	Title        string       `json:"title"                 validate:"required"`
	Description  string       `json:"description,omitempty"`
	AssigneeType AssigneeType `json:"assignee_type"         validate:"required,oneof=position user"`
	AssigneeID   string       `json:"assignee_id"           validate:"required"`
	Order        int          `json:"order"`
}

// ProcessInstance is one live execution of a BusinessProcess.
type ProcessInstance struct {
	ID            string         `json:"id"`
	ProcessID     string         `json:"process_id"`
	CurrentStepID *string        `json:"current_step_id"`
	Status        InstanceStatus `json:"status"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	TaskIDs       []string       `json:"task_ids"`
	StartedBy     string         `json:"started_by,omitempty"`
	StallReason   string         `json:"stall_reason,omitempty"`
	StalledAt     *time.Time     `json:"stalled_at,omitempty"`
	PauseReason   string         `json:"pause_reason,omitempty"`
	Version       int64          `json:"version"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Stalled reports whether the instance was paused automatically because a step had no executor.
func (i *ProcessInstance) Stalled() bool {
	return i.Status == InstanceStatusPaused && i.StallReason != ""
}

// CurrentStep returns the id of the step awaiting completion, or "" once finished.
func (i *ProcessInstance) CurrentStep() string {
	if i.CurrentStepID == nil {
		return ""
	}

	return *i.CurrentStepID
}

// LastTaskID returns the id of the most recently activated step's task, or "".
func (i *ProcessInstance) LastTaskID() string {
	if len(i.TaskIDs) == 0 {
		return ""
	}

	return i.TaskIDs[len(i.TaskIDs)-1]
}
