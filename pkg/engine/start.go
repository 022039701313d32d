package engine

import (
	"context"
	"fmt"

	"github.com/dukex/bizflow/pkg/events"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/notify"
	"github.com/dukex/bizflow/pkg/otelhelper"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// StartProcess creates an instance of the definition and the task of its first step.
//
// Nothing is written when the definition is empty or the first step cannot be
// resolved to a user. The instance is persisted only after its first task exists;
// if that write fails the task is removed again.
func (e *Engine) StartProcess(ctx context.Context, processID, initiator string) (*models.ProcessInstance, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.start_process",
		attribute.String(otelhelper.ProcessIDKey, processID),
	)
	defer span.End()

	logger := e.logger.With("process_id", processID, "initiator", initiator)

	process, err := e.process(ctx, processID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if process == nil {
		err = persistence.NewEntityError("StartProcess", "process", processID, persistence.ErrProcessNotFound)
		otelhelper.SetError(span, err)

		return nil, err
	}

	if len(process.Steps) == 0 {
		otelhelper.SetError(span, ErrEmptyProcess)

		return nil, fmt.Errorf("process %s: %w", processID, ErrEmptyProcess)
	}

	dir, err := e.directory(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	first := process.Steps[0]

	assigneeID, ok := resolve(dir, first)
	if !ok {
		err = newStepError(processID, first.ID, ErrUnresolvedAssignee)
		logger.WarnContext(ctx, "Cannot start process, first step has no executor", "step_id", first.ID)
		otelhelper.SetError(span, err, attribute.String(otelhelper.StepIDKey, first.ID))

		return nil, err
	}

	now := e.clock()
	stepID := first.ID
	instance := &models.ProcessInstance{
		ID:            uuid.NewString(),
		ProcessID:     process.ID,
		CurrentStepID: &stepID,
		Status:        models.InstanceStatusActive,
		StartedAt:     now,
		StartedBy:     initiator,
		TaskIDs:       []string{},
	}

	span.SetAttributes(attribute.String(otelhelper.InstanceIDKey, instance.ID))

	task, err := e.createStepTask(ctx, process, instance, first, assigneeID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	instance.TaskIDs = append(instance.TaskIDs, task.ID)

	err = e.saveInstance(ctx, instance, task)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	logger.InfoContext(ctx, "Process instance started",
		"instance_id", instance.ID,
		"step_id", first.ID,
		"task_id", task.ID,
		"assignee_id", assigneeID,
	)

	e.publish(ctx, instance.ID, events.ProcessInstanceStarted{
		BaseEvent:  events.NewBaseEvent(events.ProcessInstanceStartedEvent, process.ID),
		InstanceID: instance.ID,
		StepID:     first.ID,
		TaskID:     task.ID,
		AssigneeID: assigneeID,
		StartedBy:  initiator,
	})

	e.announce(ctx, notify.Message{
		Kind:       notify.KindStarted,
		Text:       fmt.Sprintf("Process %q started, first step %q", process.Title, first.Title),
		ProcessID:  process.ID,
		InstanceID: instance.ID,
		Recipients: recipients(dir, assigneeID),
	})

	return instance, nil
}
