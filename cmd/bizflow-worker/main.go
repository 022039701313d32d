package main

import (
	"context"
	"os"

	"github.com/dukex/bizflow/pkg/cmd"
	"github.com/dukex/bizflow/pkg/log"
	"github.com/dukex/bizflow/pkg/sweeper"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:                  "bizflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Advance process instances as their tasks complete",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "locker-url",
				Usage:   "Instance lock backend (memory or redis://), shared by all workers",
				Value:   "memory",
				Sources: cli.EnvVars("LOCKER_URL"),
			},
			&cli.StringFlag{
				Name:    "chat-webhook-url",
				Usage:   "Webhook receiving process notifications",
				Sources: cli.EnvVars("CHAT_WEBHOOK_URL"),
			},
			&cli.StringFlag{
				Name:    "done-statuses",
				Usage:   "Comma separated task statuses that complete a step",
				Value:   "done",
				Sources: cli.EnvVars("DONE_STATUSES"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule for retrying stalled instances",
				Value:   sweeper.DefaultSchedule,
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("bizflow-worker").With("workerId", workerID)

			logger.InfoContext(ctx, "Initializing bizflow worker")

			shutdownTracing := cmd.NewTracing(ctx, command.Bool("tracing"), "bizflow-worker", logger)
			defer func() {
				err := shutdownTracing(context.WithoutCancel(ctx))
				if err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			doneStatuses, err := cmd.ParseDoneStatuses(command.String("done-statuses"))
			if err != nil {
				return err
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "bizflow-worker", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			instanceLocker, closeLocker := cmd.NewLocker(ctx, command.String("locker-url"), logger)
			defer func() {
				err := closeLocker()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close locker", "error", err)
				}
			}()

			eng := cmd.NewEngine(logger, cmd.EngineConfig{
				Persistence:  persistence,
				Publisher:    eventBus,
				Notifier:     cmd.NewNotifier(command.String("chat-webhook-url"), logger),
				Locker:       instanceLocker,
				DoneStatuses: doneStatuses,
			})

			sweep, err := sweeper.New(command.String("sweep-schedule"), eng, logger)
			if err != nil {
				return err
			}

			worker := NewWorkerManager(workerID, eng, eventBus, sweep, logger)

			err = worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
