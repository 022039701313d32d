// Package events defines event types and structures for process lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every bizflow event; consumers dispatch on EventTypeMetadataKey.
const Topic = "bizflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Task collaborator events.
	TaskStatusChangedEvent EventType = "task.status.changed"

	// Process instance lifecycle events.
	ProcessInstanceStartedEvent   EventType = "process.instance.started"
	ProcessInstanceAdvancedEvent  EventType = "process.instance.advanced"
	ProcessInstanceStalledEvent   EventType = "process.instance.stalled"
	ProcessInstanceCompletedEvent EventType = "process.instance.completed"
	ProcessTaskOrphanedEvent      EventType = "process.task.orphaned"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ProcessID string         `json:"process_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskStatusChanged is published whenever a task's status is written.
type TaskStatusChanged struct {
	BaseEvent

	Task     *models.Task      `json:"task"`
	Previous models.TaskStatus `json:"previous"`
	Current  models.TaskStatus `json:"current"`
}

func (e TaskStatusChanged) GetType() EventType {
	return TaskStatusChangedEvent
}

type ProcessInstanceStarted struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	StepID     string `json:"step_id"`
	TaskID     string `json:"task_id"`
	AssigneeID string `json:"assignee_id"`
	StartedBy  string `json:"started_by,omitempty"`
}

func (e ProcessInstanceStarted) GetType() EventType {
	return ProcessInstanceStartedEvent
}

type ProcessInstanceAdvanced struct {
	BaseEvent

	InstanceID   string `json:"instance_id"`
	FromStepID   string `json:"from_step_id"`
	StepID       string `json:"step_id"`
	TaskID       string `json:"task_id"`
	AssigneeID   string `json:"assignee_id"`
	CompletedBy  string `json:"completed_by,omitempty"`
	StepPosition int    `json:"step_position"`
}

func (e ProcessInstanceAdvanced) GetType() EventType {
	return ProcessInstanceAdvancedEvent
}

// ProcessInstanceStalled reports an instance paused because its next step has no executor.
type ProcessInstanceStalled struct {
	BaseEvent

	InstanceID  string `json:"instance_id"`
	StepID      string `json:"step_id"`
	BlockedStep string `json:"blocked_step_id"`
	Reason      string `json:"reason"`
}

func (e ProcessInstanceStalled) GetType() EventType {
	return ProcessInstanceStalledEvent
}

type ProcessInstanceCompleted struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	TaskCount  int    `json:"task_count"`
	DurationMs int64  `json:"duration_ms"`
}

func (e ProcessInstanceCompleted) GetType() EventType {
	return ProcessInstanceCompletedEvent
}

// ProcessTaskOrphaned reports a completed task whose definition or instance no longer resolves.
type ProcessTaskOrphaned struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	TaskID     string `json:"task_id"`
	Reason     string `json:"reason"`
}

func (e ProcessTaskOrphaned) GetType() EventType {
	return ProcessTaskOrphanedEvent
}

func NewBaseEvent(eventType EventType, processID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ProcessID: processID,
		Metadata:  make(map[string]any),
	}
}
