package engine

import (
	"context"

	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/events"
)

// Subscribe registers the engine as the handler of task status changes.
func (e *Engine) Subscribe(bus eventbus.EventSubscriber) error {
	return bus.Handle(events.TaskStatusChangedEvent, func(ctx context.Context, event any) error {
		changed, ok := event.(*events.TaskStatusChanged)
		if !ok || changed.Task == nil {
			e.logger.WarnContext(ctx, "Ignoring malformed task status event")

			return nil
		}

		task := changed.Task
		if changed.Current != "" {
			task.Status = changed.Current
		}

		return e.OnTaskStatusChanged(ctx, task, changed.Previous)
	})
}
