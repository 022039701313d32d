package eventbus_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/dukex/bizflow/pkg/channels/gochannel"
	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/events"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T, opts ...eventbus.Option) *eventbus.WatermillEventBus {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(logger, pub, sub, opts...)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus := newTestBus(t)

	received := make(chan *events.TaskStatusChanged, 1)

	err := bus.Handle(events.TaskStatusChangedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.TaskStatusChanged)

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	instanceID := "inst-1"
	published := events.TaskStatusChanged{
		BaseEvent: events.NewBaseEvent(events.TaskStatusChangedEvent, "proc-1"),
		Task:      &models.Task{ID: "task-1", Status: models.TaskStatusDone, ProcessInstanceID: &instanceID},
		Previous:  models.TaskStatusReview,
		Current:   models.TaskStatusDone,
	}

	require.NoError(t, bus.Publish(ctx, "task-1", published))

	select {
	case event := <-received:
		assert.Equal(t, "task-1", event.Task.ID)
		assert.Equal(t, "inst-1", event.Task.InstanceID())
		assert.Equal(t, models.TaskStatusReview, event.Previous)
		assert.Equal(t, models.TaskStatusDone, event.Current)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreAcked(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus := newTestBus(t)

	var calls atomic.Int32

	err := bus.Handle(events.ProcessInstanceCompletedEvent, func(context.Context, any) error {
		calls.Add(1)

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	// Publish blocks until ack, so returning proves the message was acknowledged.
	err = bus.Publish(ctx, "inst-1", events.ProcessInstanceStarted{
		BaseEvent:  events.NewBaseEvent(events.ProcessInstanceStartedEvent, "proc-1"),
		InstanceID: "inst-1",
	})
	require.NoError(t, err)

	err = bus.Publish(ctx, "inst-1", events.ProcessInstanceCompleted{
		BaseEvent:  events.NewBaseEvent(events.ProcessInstanceCompletedEvent, "proc-1"),
		InstanceID: "inst-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestWatermillEventBus_HandlerErrorIsRetried(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus := newTestBus(t)

	var attempts atomic.Int32

	err := bus.Handle(events.ProcessInstanceStalledEvent, func(context.Context, any) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	err = bus.Publish(ctx, "inst-1", events.ProcessInstanceStalled{
		BaseEvent:  events.NewBaseEvent(events.ProcessInstanceStalledEvent, "proc-1"),
		InstanceID: "inst-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), attempts.Load())
}

func TestWatermillEventBus_RetriesBackOff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus := newTestBus(t, eventbus.WithRetry(middleware.Retry{
		MaxRetries:      5,
		InitialInterval: 20 * time.Millisecond,
		Multiplier:      2,
		MaxInterval:     time.Second,
	}))

	var attempts atomic.Int32

	err := bus.Handle(events.ProcessInstanceAdvancedEvent, func(context.Context, any) error {
		if attempts.Add(1) <= 2 {
			return errors.New("storage unavailable")
		}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	started := time.Now()

	err = bus.Publish(ctx, "inst-1", events.ProcessInstanceAdvanced{
		BaseEvent:  events.NewBaseEvent(events.ProcessInstanceAdvancedEvent, "proc-1"),
		InstanceID: "inst-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), attempts.Load())
	assert.GreaterOrEqual(t, time.Since(started), 60*time.Millisecond)
}

func TestWatermillEventBus_RejectsNilAndUnknown(t *testing.T) {
	bus := newTestBus(t)

	err := bus.Publish(t.Context(), "k", nil)
	require.ErrorIs(t, err, eventbus.ErrNilEvent)

	err = bus.Handle(events.EventType("workflow.triggered"), func(context.Context, any) error { return nil })
	assert.Error(t, err)
}

func TestNewEvent(t *testing.T) {
	for _, eventType := range []events.EventType{
		events.TaskStatusChangedEvent,
		events.ProcessInstanceStartedEvent,
		events.ProcessInstanceAdvancedEvent,
		events.ProcessInstanceStalledEvent,
		events.ProcessInstanceCompletedEvent,
		events.ProcessTaskOrphanedEvent,
	} {
		event, ok := eventbus.NewEvent(eventType)
		require.True(t, ok, eventType)
		assert.Equal(t, eventType, event.(eventbus.Event).GetType())
	}

	_, ok := eventbus.NewEvent("unknown")
	assert.False(t, ok)
}
