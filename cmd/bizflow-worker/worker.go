package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/bizflow/pkg/engine"
	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/sweeper"
)

const shutdownTimeout = 30 * time.Second

// WorkerManager advances process instances from task status events and
// periodically retries the stalled ones.
type WorkerManager struct {
	id       string
	logger   *slog.Logger
	engine   *engine.Engine
	eventBus eventbus.EventBus
	sweeper  *sweeper.Sweeper
}

func NewWorkerManager(
	id string,
	engine *engine.Engine,
	eventBus eventbus.EventBus,
	sweeper *sweeper.Sweeper,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:       id,
		logger:   logger.With("module", "bizflow-worker", "worker_id", id),
		engine:   engine,
		eventBus: eventBus,
		sweeper:  sweeper,
	}
}

// Start blocks until SIGINT, SIGTERM or ctx cancellation.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.engine.Subscribe(w.eventBus)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if w.sweeper != nil {
		err = w.sweeper.Start(ctx)
		if err != nil {
			return err
		}
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(ctx, "Shutting down worker...")

	return w.stop(ctx)
}

func (w *WorkerManager) stop(ctx context.Context) error {
	if w.sweeper == nil {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return w.sweeper.Stop(stopCtx)
}
