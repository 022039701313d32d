// Package engine drives process instances: it starts them, advances them when the
// task of the current step is done and completes them after the last step.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/locker"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/notify"
	"github.com/dukex/bizflow/pkg/orgdir"
	"github.com/dukex/bizflow/pkg/otelhelper"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/mohae/deepcopy"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultDueIn is the time an assignee gets to finish a step task.
	DefaultDueIn = 7 * 24 * time.Hour

	// DefaultNotifyTimeout bounds a single notification delivery.
	DefaultNotifyTimeout = 5 * time.Second
)

// TaskCreator is the task collaborator the engine writes step tasks through.
type TaskCreator interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type Engine struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	tasks         TaskCreator
	publisher     eventbus.EventPublisher
	notifier      notify.Notifier
	locker        locker.Locker
	tracer        trace.Tracer
	done          map[models.TaskStatus]struct{}
	dueIn         time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}
	dueIn       time.Duration
	notifyTimeout time.Duration
	now         func() time.Time
}

type Option func(*Engine)

// WithPublisher sets where lifecycle events go. Without it no events are published.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(e *Engine) { e.notifier = notifier }
}

func WithLocker(l locker.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithDoneStatuses replaces the set of task statuses that count as finished.
func WithDoneStatuses(statuses ...models.TaskStatus) Option {
	return func(e *Engine) {
		if len(statuses) == 0 {
			return
		}

		e.done = make(map[models.TaskStatus]struct{}, len(statuses))
		for _, status := range statuses {
			e.done[status] = struct{}{}
		}
	}
}

func WithDueIn(dueIn time.Duration) Option {
	return func(e *Engine) {
		if dueIn > 0 {
			e.dueIn = dueIn
		}
	}
}

// WithNotifyTimeout bounds how long one notification may take.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.notifyTimeout = timeout
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(logger *slog.Logger, p persistence.Persistence, tasks TaskCreator, opts ...Option) *Engine {
	engine := &Engine{
		logger:        logger.With("module", "engine"),
		persistence:   p,
		tasks:         tasks,
		notifier:      notify.Nop{},
		locker:        locker.NewMemoryLocker(),
		tracer:        otelhelper.Tracer("bizflow.engine"),
		done:          map[models.TaskStatus]struct{}{models.TaskStatusDone: {}},
		dueIn:         DefaultDueIn,
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// IsDone reports whether status belongs to the configured done-set.
func (e *Engine) IsDone(status models.TaskStatus) bool {
	_, ok := e.done[status]

	return ok
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

func (e *Engine) directory(ctx context.Context) (*orgdir.Directory, error) {
	positions, err := e.persistence.OrgRepository().Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load org positions: %w", err)
	}

	users, err := e.persistence.OrgRepository().Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load org users: %w", err)
	}

	return orgdir.New(positions, users), nil
}

// resolve returns the executor of step; an empty user id counts as unresolved.
func resolve(dir *orgdir.Directory, step *models.ProcessStep) (string, bool) {
	userID, ok := dir.Resolve(step)
	if !ok || userID == "" {
		return "", false
	}

	return userID, true
}

func (e *Engine) process(ctx context.Context, id string) (*models.BusinessProcess, error) {
	process, err := e.persistence.ProcessRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load process %s: %w", id, err)
	}

	return process, nil
}

func (e *Engine) instance(ctx context.Context, id string) (*models.ProcessInstance, error) {
	instance, err := e.persistence.InstanceRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load instance %s: %w", id, err)
	}

	return instance, nil
}

// lockInstance serializes every read-modify-write of one instance.
func (e *Engine) lockInstance(ctx context.Context, instanceID string) (locker.Unlock, error) {
	unlock, err := e.locker.Lock(ctx, locker.InstanceKey(instanceID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock instance %s: %w", instanceID, err)
	}

	return unlock, nil
}

// createStepTask creates the task for step assigned to assigneeID.
func (e *Engine) createStepTask(
	ctx context.Context,
	process *models.BusinessProcess,
	instance *models.ProcessInstance,
	step *models.ProcessStep,
	assigneeID string,
) (*models.Task, error) {
	now := e.clock()
	processID, instanceID, stepID := process.ID, instance.ID, step.ID

	task, err := e.tasks.Create(ctx, &models.Task{
		Title:             process.Title + ": " + step.Title,
		Description:       step.Description,
		Status:            models.TaskStatusNotStarted,
		Priority:          models.TaskPriorityMedium,
		AssigneeID:        assigneeID,
		StartDate:         now,
		EndDate:           now.Add(e.dueIn),
		ProcessID:         &processID,
		ProcessInstanceID: &instanceID,
		StepID:            &stepID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task for step %s: %w", step.ID, err)
	}

	return task, nil
}

// saveInstance persists next and deletes createdTask when the write fails.
func (e *Engine) saveInstance(ctx context.Context, next *models.ProcessInstance, createdTask *models.Task) error {
	next.UpdatedAt = e.clock()

	err := e.persistence.InstanceRepository().Save(ctx, next)
	if err == nil {
		return nil
	}

	if createdTask != nil {
		if deleteErr := e.tasks.Delete(context.WithoutCancel(ctx), createdTask.ID); deleteErr != nil {
			e.logger.ErrorContext(ctx, "Failed to delete task after instance write failed",
				"task_id", createdTask.ID,
				"instance_id", next.ID,
				"error", deleteErr,
			)
		}
	}

	return fmt.Errorf("failed to save instance %s: %w", next.ID, err)
}

// publish emits a lifecycle event. State is already committed, so failures are only logged.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "key", key, "error", err)
	}
}

// announce delivers a best-effort notification within notifyTimeout.
func (e *Engine) announce(ctx context.Context, msg notify.Message) {
	ctx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()

	if err := e.notifier.Notify(ctx, msg); err != nil {
		e.logger.WarnContext(ctx, "Failed to deliver notification", "kind", msg.Kind, "instance_id", msg.InstanceID, "error", err)
	}
}

// outbox collects notifications raised while an instance is locked.
type outbox struct {
	messages []notify.Message
}

func (o *outbox) add(msg notify.Message) {
	o.messages = append(o.messages, msg)
}

// withInstanceLock runs fn under the instance lock and announces what fn queued
// once the lock is released, whether fn failed or not.
func (e *Engine) withInstanceLock(ctx context.Context, instanceID string, fn func(box *outbox) error) error {
	unlock, err := e.lockInstance(ctx, instanceID)
	if err != nil {
		return err
	}

	box := &outbox{}

	func() {
		defer unlock()

		err = fn(box)
	}()

	for _, msg := range box.messages {
		e.announce(ctx, msg)
	}

	return err
}

func recipients(dir *orgdir.Directory, userIDs ...string) []string {
	chatIDs := make([]string, 0, len(userIDs))

	for _, userID := range userIDs {
		if user := dir.User(userID); user != nil && user.ChatID != "" {
			chatIDs = append(chatIDs, user.ChatID)
		}
	}

	return chatIDs
}

func clone(instance *models.ProcessInstance) *models.ProcessInstance {
	copied, _ := deepcopy.Copy(instance).(*models.ProcessInstance)

	return copied
}
