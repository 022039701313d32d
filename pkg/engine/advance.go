package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/bizflow/pkg/events"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/notify"
	"github.com/dukex/bizflow/pkg/orgdir"
	"github.com/dukex/bizflow/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// OnTaskStatusChanged advances the owning instance when task moved from a
// non-done status into a done one.
//
// Tasks without an instance, transitions that are not "became done", tasks of
// instances that are no longer active and tasks that are not the current step's
// latest task are ignored, so re-delivering the same event is harmless. A task
// whose definition or instance is gone is reported as orphaned. When the next
// step has no executor the instance is paused as stalled instead of advancing.
// Only storage failures are returned.
func (e *Engine) OnTaskStatusChanged(ctx context.Context, task *models.Task, previous models.TaskStatus) error {
	if task == nil || task.InstanceID() == "" {
		return nil
	}

	if e.IsDone(previous) || !e.IsDone(task.Status) {
		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.on_task_status_changed",
		attribute.String(otelhelper.TaskIDKey, task.ID),
		attribute.String(otelhelper.InstanceIDKey, task.InstanceID()),
		attribute.String(otelhelper.ProcessIDKey, task.ProcessRef()),
		attribute.String(otelhelper.StepIDKey, task.StepRef()),
		attribute.String(otelhelper.TaskStatusKey, string(task.Status)),
	)
	defer span.End()

	err := e.withInstanceLock(ctx, task.InstanceID(), func(box *outbox) error {
		return e.advance(ctx, box, task)
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}

func (e *Engine) advance(ctx context.Context, box *outbox, task *models.Task) error {
	logger := e.logger.With("task_id", task.ID, "instance_id", task.InstanceID())

	instance, err := e.instance(ctx, task.InstanceID())
	if err != nil {
		return err
	}

	if instance == nil {
		e.orphaned(ctx, task, task.ProcessRef(), "process instance not found")

		return nil
	}

	processID := task.ProcessRef()
	if processID == "" {
		processID = instance.ProcessID
	}

	process, err := e.process(ctx, processID)
	if err != nil {
		return err
	}

	if process == nil {
		e.orphaned(ctx, task, processID, "process definition not found")

		return nil
	}

	if instance.Status != models.InstanceStatusActive {
		logger.DebugContext(ctx, "Ignoring task of inactive instance", "status", instance.Status)

		return nil
	}

	if task.StepRef() != instance.CurrentStep() || task.ID != instance.LastTaskID() {
		logger.DebugContext(ctx, "Ignoring task that is not the current step task",
			"task_step_id", task.StepRef(),
			"current_step_id", instance.CurrentStep(),
			"last_task_id", instance.LastTaskID(),
		)

		return nil
	}

	dir, err := e.directory(ctx)
	if err != nil {
		return err
	}

	_, err = e.moveForward(ctx, box, dir, process, instance, task.AssigneeID)
	if errors.Is(err, ErrUnresolvedAssignee) || errors.Is(err, ErrStepNotInDefinition) {
		return nil
	}

	return err
}

// moveForward activates the step after the instance's current one, or completes
// the instance when the current step is the last. The caller holds the instance lock.
func (e *Engine) moveForward(
	ctx context.Context,
	box *outbox,
	dir *orgdir.Directory,
	process *models.BusinessProcess,
	instance *models.ProcessInstance,
	completedBy string,
) (*models.ProcessInstance, error) {
	currentIndex := process.StepIndex(instance.CurrentStep())
	if currentIndex < 0 {
		reason := fmt.Sprintf("step %s is no longer part of the process definition", instance.CurrentStep())

		return e.stall(ctx, box, dir, process, instance, instance.CurrentStep(), reason, ErrStepNotInDefinition)
	}

	nextIndex := currentIndex + 1
	if nextIndex >= len(process.Steps) {
		return e.complete(ctx, box, dir, process, instance)
	}

	nextStep := process.Steps[nextIndex]

	assigneeID, ok := resolve(dir, nextStep)
	if !ok {
		reason := fmt.Sprintf("no resolvable assignee for step %q (%s %s)",
			nextStep.Title, nextStep.AssigneeType, nextStep.AssigneeID)

		return e.stall(ctx, box, dir, process, instance, nextStep.ID, reason, ErrUnresolvedAssignee)
	}

	next := clone(instance)

	task, err := e.createStepTask(ctx, process, next, nextStep, assigneeID)
	if err != nil {
		return nil, err
	}

	fromStepID := instance.CurrentStep()
	stepID := nextStep.ID
	next.CurrentStepID = &stepID
	next.TaskIDs = append(next.TaskIDs, task.ID)
	next.Status = models.InstanceStatusActive
	clearPause(next)

	err = e.saveInstance(ctx, next, task)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Process instance advanced",
		"instance_id", next.ID,
		"process_id", process.ID,
		"from_step_id", fromStepID,
		"step_id", stepID,
		"task_id", task.ID,
		"assignee_id", assigneeID,
	)

	e.publish(ctx, next.ID, events.ProcessInstanceAdvanced{
		BaseEvent:    events.NewBaseEvent(events.ProcessInstanceAdvancedEvent, process.ID),
		InstanceID:   next.ID,
		FromStepID:   fromStepID,
		StepID:       stepID,
		TaskID:       task.ID,
		AssigneeID:   assigneeID,
		CompletedBy:  completedBy,
		StepPosition: nextIndex,
	})

	box.add(notify.Message{
		Kind:       notify.KindAdvanced,
		Text:       fmt.Sprintf("Process %q moved to step %q", process.Title, nextStep.Title),
		ProcessID:  process.ID,
		InstanceID: next.ID,
		Recipients: recipients(dir, assigneeID),
	})

	return next, nil
}

func (e *Engine) complete(
	ctx context.Context,
	box *outbox,
	dir *orgdir.Directory,
	process *models.BusinessProcess,
	instance *models.ProcessInstance,
) (*models.ProcessInstance, error) {
	now := e.clock()

	next := clone(instance)
	next.Status = models.InstanceStatusCompleted
	next.CompletedAt = &now
	next.CurrentStepID = nil
	clearPause(next)

	err := e.saveInstance(ctx, next, nil)
	if err != nil {
		return nil, err
	}

	duration := now.Sub(next.StartedAt)

	e.logger.InfoContext(ctx, "Process instance completed",
		"instance_id", next.ID,
		"process_id", process.ID,
		"tasks", len(next.TaskIDs),
		"duration", duration,
	)

	e.publish(ctx, next.ID, events.ProcessInstanceCompleted{
		BaseEvent:  events.NewBaseEvent(events.ProcessInstanceCompletedEvent, process.ID),
		InstanceID: next.ID,
		TaskCount:  len(next.TaskIDs),
		DurationMs: duration.Milliseconds(),
	})

	box.add(notify.Message{
		Kind:       notify.KindCompleted,
		Text:       fmt.Sprintf("Process %q completed", process.Title),
		ProcessID:  process.ID,
		InstanceID: next.ID,
		Recipients: recipients(dir, next.StartedBy),
	})

	return next, nil
}

// stall pauses the instance with reason and returns cause wrapped in a StepError.
// The current step is left untouched. Repeating an identical stall writes nothing.
func (e *Engine) stall(
	ctx context.Context,
	box *outbox,
	dir *orgdir.Directory,
	process *models.BusinessProcess,
	instance *models.ProcessInstance,
	blockedStepID string,
	reason string,
	cause error,
) (*models.ProcessInstance, error) {
	stallErr := newStepError(process.ID, blockedStepID, cause)

	if instance.Stalled() && instance.StallReason == reason {
		return instance, stallErr
	}

	now := e.clock()

	next := clone(instance)
	next.Status = models.InstanceStatusPaused
	next.StallReason = reason
	next.PauseReason = ""

	if next.StalledAt == nil {
		next.StalledAt = &now
	}

	err := e.saveInstance(ctx, next, nil)
	if err != nil {
		return nil, err
	}

	e.logger.WarnContext(ctx, "Process instance stalled",
		"instance_id", next.ID,
		"process_id", process.ID,
		"step_id", next.CurrentStep(),
		"blocked_step_id", blockedStepID,
		"reason", reason,
	)

	e.publish(ctx, next.ID, events.ProcessInstanceStalled{
		BaseEvent:   events.NewBaseEvent(events.ProcessInstanceStalledEvent, process.ID),
		InstanceID:  next.ID,
		StepID:      next.CurrentStep(),
		BlockedStep: blockedStepID,
		Reason:      reason,
	})

	box.add(notify.Message{
		Kind:       notify.KindStalled,
		Text:       fmt.Sprintf("Process %q is stalled: %s", process.Title, reason),
		ProcessID:  process.ID,
		InstanceID: next.ID,
		Recipients: recipients(dir, next.StartedBy),
	})

	return next, stallErr
}

func (e *Engine) orphaned(ctx context.Context, task *models.Task, processID, reason string) {
	e.logger.WarnContext(ctx, "Completed task references a missing process",
		"task_id", task.ID,
		"instance_id", task.InstanceID(),
		"process_id", processID,
		"reason", reason,
	)

	e.publish(ctx, task.ID, events.ProcessTaskOrphaned{
		BaseEvent:  events.NewBaseEvent(events.ProcessTaskOrphanedEvent, processID),
		InstanceID: task.InstanceID(),
		TaskID:     task.ID,
		Reason:     reason,
	})
}

func clearPause(instance *models.ProcessInstance) {
	instance.StallReason = ""
	instance.StalledAt = nil
	instance.PauseReason = ""
}
