// Package eventbus provides the event-driven glue between task updates and the process engine.
package eventbus

import (
	"context"

	"github.com/dukex/bizflow/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// NewEvent returns an empty, decodable value for the given event type.
func NewEvent(eventType events.EventType) (any, bool) {
	switch eventType {
	case events.TaskStatusChangedEvent:
		return &events.TaskStatusChanged{}, true
	case events.ProcessInstanceStartedEvent:
		return &events.ProcessInstanceStarted{}, true
	case events.ProcessInstanceAdvancedEvent:
		return &events.ProcessInstanceAdvanced{}, true
	case events.ProcessInstanceStalledEvent:
		return &events.ProcessInstanceStalled{}, true
	case events.ProcessInstanceCompletedEvent:
		return &events.ProcessInstanceCompleted{}, true
	case events.ProcessTaskOrphanedEvent:
		return &events.ProcessTaskOrphaned{}, true
	default:
		return nil, false
	}
}
