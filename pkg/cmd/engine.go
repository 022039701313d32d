package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/bizflow/pkg/engine"
	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/locker"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/notify"
	"github.com/dukex/bizflow/pkg/otelhelper"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/dukex/bizflow/pkg/services"
)

// EngineConfig collects the collaborators of an engine built by NewEngine.
type EngineConfig struct {
	Persistence  persistence.Persistence
	Publisher    eventbus.EventPublisher
	Notifier     notify.Notifier
	Locker       locker.Locker
	DoneStatuses []models.TaskStatus
}

// NewEngine builds an engine that creates step tasks through the task service.
func NewEngine(logger *slog.Logger, config EngineConfig) *engine.Engine {
	opts := []engine.Option{
		engine.WithPublisher(config.Publisher),
		engine.WithDoneStatuses(config.DoneStatuses...),
	}

	if config.Notifier != nil {
		opts = append(opts, engine.WithNotifier(config.Notifier))
	}

	if config.Locker != nil {
		opts = append(opts, engine.WithLocker(config.Locker))
	}

	tasks := services.NewTask(config.Persistence, nil, config.DoneStatuses...)

	return engine.New(logger, config.Persistence, tasks, opts...)
}

// NewTracing installs the OTLP tracer provider when enabled and returns its shutdown.
func NewTracing(ctx context.Context, enabled bool, serviceName string, logger *slog.Logger) otelhelper.Shutdown {
	if !enabled {
		return func(context.Context) error { return nil }
	}

	_, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.WarnContext(ctx, "Tracing disabled, failed to create tracer provider", "error", err)

		return func(context.Context) error { return nil }
	}

	return shutdown
}

// ParseDoneStatuses turns a comma separated list of statuses or board labels
// into the engine's done-set. An empty list means just "done".
func ParseDoneStatuses(raw string) ([]models.TaskStatus, error) {
	statuses := make([]models.TaskStatus, 0)

	for _, label := range strings.Split(raw, ",") {
		if strings.TrimSpace(label) == "" {
			continue
		}

		status, ok := models.ParseTaskStatus(label)
		if !ok {
			return nil, fmt.Errorf("unknown task status %q", strings.TrimSpace(label))
		}

		statuses = append(statuses, status)
	}

	if len(statuses) == 0 {
		statuses = append(statuses, models.TaskStatusDone)
	}

	return statuses, nil
}
