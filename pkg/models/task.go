package models

import (
	"strings"
	"time"
)

// TaskStatus is the closed set of states a task record can be in.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskPriority orders tasks on the board.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// taskStatusLabels maps board labels, including localized synonyms, to statuses.
var taskStatusLabels = map[string]TaskStatus{
	"not_started": TaskStatusNotStarted,
	"not started": TaskStatusNotStarted,
	"todo":        TaskStatusNotStarted,
	"не начата":   TaskStatusNotStarted,
	"in_progress": TaskStatusInProgress,
	"in progress": TaskStatusInProgress,
	"в работе":    TaskStatusInProgress,
	"review":      TaskStatusReview,
	"на проверке": TaskStatusReview,
	"done":        TaskStatusDone,
	"completed":   TaskStatusDone,
	"выполнено":   TaskStatusDone,
	"выполнена":   TaskStatusDone,
	"готово":      TaskStatusDone,
	"cancelled":   TaskStatusCancelled,
	"canceled":    TaskStatusCancelled,
	"отменена":    TaskStatusCancelled,
}

// ParseTaskStatus converts a status label into a TaskStatus. Matching is case-insensitive.
func ParseTaskStatus(label string) (TaskStatus, bool) {
	status, ok := taskStatusLabels[strings.ToLower(strings.TrimSpace(label))]

	return status, ok
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusReview, TaskStatusDone, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Task is a generic work item. Tasks spawned by the engine carry the three
// process back-references.
type Task struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"                         validate:"required"`
	Description       string       `json:"description,omitempty"`
	Status            TaskStatus   `json:"status"                        validate:"required"`
	Priority          TaskPriority `json:"priority"`
	AssigneeID        string       `json:"assignee_id"`
	StartDate         time.Time    `json:"start_date"`
	EndDate           time.Time    `json:"end_date"`
	ProcessID         *string      `json:"process_id,omitempty"`
	ProcessInstanceID *string      `json:"process_instance_id,omitempty"`
	StepID            *string      `json:"step_id,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
}

// InstanceID returns the owning process instance id, or "" for free-standing tasks.
func (t *Task) InstanceID() string {
	if t.ProcessInstanceID == nil {
		return ""
	}

	return *t.ProcessInstanceID
}

// ProcessRef returns the owning process id, or "".
func (t *Task) ProcessRef() string {
	if t.ProcessID == nil {
		return ""
	}

	return *t.ProcessID
}

// StepRef returns the step id the task was created for, or "".
func (t *Task) StepRef() string {
	if t.StepID == nil {
		return ""
	}

	return *t.StepID
}
