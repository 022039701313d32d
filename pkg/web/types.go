// Package web provides HTTP request and response types for the process API.
package web

import (
	"time"

	"github.com/dukex/bizflow/pkg/models"
)

// StartProcessRequest represents the request body for starting a process instance.
type StartProcessRequest struct {
	Initiator string `json:"initiator" validate:"required"`
}

// PauseInstanceRequest represents the request body for pausing an instance.
type PauseInstanceRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CreateTaskRequest represents the request body for creating a free-standing task.
type CreateTaskRequest struct {
	Title       string     `json:"title"              validate:"required"`
	Description string     `json:"description"`
	AssigneeID  string     `json:"assignee_id"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// UpdateTaskStatusRequest carries a status or a board label such as "Done".
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ProcessSummary is the list entry of a process definition.
type ProcessSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StepCount int       `json:"step_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransformProcessSummary reduces a definition to its list entry.
func TransformProcessSummary(process *models.BusinessProcess) ProcessSummary {
	return ProcessSummary{
		ID:        process.ID,
		Title:     process.Title,
		StepCount: len(process.Steps),
		UpdatedAt: process.UpdatedAt,
	}
}

// NewTask builds the task model of a create request.
func (r CreateTaskRequest) NewTask() *models.Task {
	task := &models.Task{
		Title:       r.Title,
		Description: r.Description,
		AssigneeID:  r.AssigneeID,
		Priority:    models.TaskPriority(r.Priority),
	}

	if r.EndDate != nil {
		task.EndDate = r.EndDate.UTC()
	}

	return task
}
