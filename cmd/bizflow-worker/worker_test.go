package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/bizflow/pkg/cmd"
	"github.com/dukex/bizflow/pkg/events"
	"github.com/dukex/bizflow/pkg/mocks"
	"github.com/dukex/bizflow/pkg/persistence/file"
	"github.com/dukex/bizflow/pkg/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, bus *mocks.MockEventBus) *WorkerManager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := cmd.NewEngine(logger, cmd.EngineConfig{Persistence: file.NewPersistence(t.TempDir())})

	sweep, err := sweeper.New("@every 1h", eng, logger)
	require.NoError(t, err)

	return NewWorkerManager("worker-test", eng, bus, sweep, logger)
}

func TestWorkerManager_StartStopsOnContextCancel(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.TaskStatusChangedEvent, mock.Anything).Return(nil)
	bus.On("Subscribe", mock.Anything).Return(nil)

	worker := newTestWorker(t, bus)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- worker.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	bus.AssertExpectations(t)
}

func TestWorkerManager_SubscribeFailure(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.TaskStatusChangedEvent, mock.Anything).Return(nil)
	bus.On("Subscribe", mock.Anything).Return(errors.New("broker unavailable"))

	worker := newTestWorker(t, bus)

	err := worker.Start(context.Background())
	assert.EqualError(t, err, "broker unavailable")
}
