package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/otelhelper"
	"github.com/dukex/bizflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// Pause stops an active instance until Resume is called. Task updates that arrive
// while paused are picked up by Resume.
func (e *Engine) Pause(ctx context.Context, instanceID, reason string) (*models.ProcessInstance, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.pause",
		attribute.String(otelhelper.InstanceIDKey, instanceID),
	)
	defer span.End()

	unlock, err := e.lockInstance(ctx, instanceID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}
	defer unlock()

	instance, err := e.requireInstance(ctx, "Pause", instanceID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if instance.Status != models.InstanceStatusActive {
		return nil, fmt.Errorf("instance %s is %s: %w", instanceID, instance.Status, ErrInstanceNotActive)
	}

	next := clone(instance)
	next.Status = models.InstanceStatusPaused
	next.PauseReason = reason

	err = e.saveInstance(ctx, next, nil)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	e.logger.InfoContext(ctx, "Process instance paused", "instance_id", instanceID, "reason", reason)

	return next, nil
}

// Resume reactivates a paused instance. When the current step's task was
// finished meanwhile, the next step is activated (or the instance completed);
// if that step still has no executor the instance stays paused and
// ErrUnresolvedAssignee is returned.
func (e *Engine) Resume(ctx context.Context, instanceID string) (*models.ProcessInstance, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.resume",
		attribute.String(otelhelper.InstanceIDKey, instanceID),
	)
	defer span.End()

	var instance *models.ProcessInstance

	err := e.withInstanceLock(ctx, instanceID, func(box *outbox) error {
		var err error

		instance, err = e.resume(ctx, box, instanceID)

		return err
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return instance, err
	}

	return instance, nil
}

func (e *Engine) resume(ctx context.Context, box *outbox, instanceID string) (*models.ProcessInstance, error) {
	instance, err := e.requireInstance(ctx, "Resume", instanceID)
	if err != nil {
		return nil, err
	}

	if instance.Status != models.InstanceStatusPaused {
		return nil, fmt.Errorf("instance %s is %s: %w", instanceID, instance.Status, ErrInstanceNotPaused)
	}

	process, err := e.process(ctx, instance.ProcessID)
	if err != nil {
		return nil, err
	}

	if process == nil {
		return nil, persistence.NewEntityError("Resume", "process", instance.ProcessID, persistence.ErrProcessNotFound)
	}

	var lastTask *models.Task

	if instance.LastTaskID() != "" {
		lastTask, err = e.persistence.TaskRepository().GetByID(ctx, instance.LastTaskID())
		if err != nil {
			return nil, fmt.Errorf("failed to load task %s: %w", instance.LastTaskID(), err)
		}
	}

	if lastTask != nil && e.IsDone(lastTask.Status) && lastTask.StepRef() == instance.CurrentStep() {
		dir, err := e.directory(ctx)
		if err != nil {
			return nil, err
		}

		return e.moveForward(ctx, box, dir, process, instance, lastTask.AssigneeID)
	}

	next := clone(instance)
	next.Status = models.InstanceStatusActive
	clearPause(next)

	err = e.saveInstance(ctx, next, nil)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Process instance resumed", "instance_id", instanceID, "step_id", next.CurrentStep())

	return next, nil
}

// RetryStalled resumes every stalled instance whose blocked step became
// resolvable. It returns how many instances moved on.
func (e *Engine) RetryStalled(ctx context.Context) (int, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.retry_stalled")
	defer span.End()

	paused, err := e.persistence.InstanceRepository().GetByStatus(ctx, models.InstanceStatusPaused)
	if err != nil {
		err = fmt.Errorf("failed to list paused instances: %w", err)
		otelhelper.SetError(span, err)

		return 0, err
	}

	var (
		resumed int
		errs    []error
	)

	for _, instance := range paused {
		if !instance.Stalled() {
			continue
		}

		next, err := e.Resume(ctx, instance.ID)

		switch {
		case errors.Is(err, ErrUnresolvedAssignee), errors.Is(err, ErrStepNotInDefinition):
			e.logger.DebugContext(ctx, "Instance still stalled", "instance_id", instance.ID, "reason", instance.StallReason)
		case errors.Is(err, ErrInstanceNotPaused):
			// Resumed concurrently.
		case err != nil:
			errs = append(errs, err)
		case next != nil && next.Status != models.InstanceStatusPaused:
			resumed++
		}
	}

	span.SetAttributes(attribute.Int("bizflow.instances.resumed", resumed))

	if len(errs) > 0 {
		err = errors.Join(errs...)
		otelhelper.SetError(span, err)

		return resumed, err
	}

	return resumed, nil
}

func (e *Engine) requireInstance(ctx context.Context, op, instanceID string) (*models.ProcessInstance, error) {
	instance, err := e.instance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance == nil {
		return nil, persistence.NewEntityError(op, "instance", instanceID, persistence.ErrInstanceNotFound)
	}

	return instance, nil
}
