package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/bizflow/pkg/channels/gochannel"
	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/events"
	"github.com/dukex/bizflow/pkg/mocks"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_AdvancesOnPublishedStatusChange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f := newFixture(t)
	f.saveProcess(t, "invoice", "pos-a", "pos-b")

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(testLogger(), pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	require.NoError(t, f.engine.Subscribe(bus))
	require.NoError(t, bus.Subscribe(ctx))

	// The blocking test channel returns from Publish only after the engine acked.
	board := services.NewTask(f.store, bus)

	instance, err := f.engine.StartProcess(ctx, "invoice", "initiator")
	require.NoError(t, err)

	_, err = board.UpdateStatus(ctx, instance.TaskIDs[0], models.TaskStatusDone)
	require.NoError(t, err)

	stored := f.instance(t, instance.ID)
	assert.Equal(t, "s2", stored.CurrentStep())
	assert.Len(t, stored.TaskIDs, 2)
	assert.Equal(t, 1, f.published.count(events.ProcessInstanceAdvancedEvent))
}

func TestSubscribe_RegistersTaskStatusHandler(t *testing.T) {
	f := newFixture(t)

	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.TaskStatusChangedEvent, mock.Anything).Return(nil)

	require.NoError(t, f.engine.Subscribe(bus))
	bus.AssertExpectations(t)
}
