package main

import (
	"context"
	"os"

	"github.com/dukex/bizflow/pkg/cmd"
	"github.com/dukex/bizflow/pkg/log"
	"github.com/dukex/bizflow/pkg/sweeper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	app := &cli.Command{
		Name:                  "bizflow-api",
		Usage:                 "Manage process definitions, instances, tasks and the org directory",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file path or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "locker-url",
				Usage:   "Instance lock backend (memory or redis://)",
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
			&cli.BoolFlag{
				Name:    "run-engine",
				Usage:   "Advance instances in this process (required with the gochannel bus)",
				Value:   true,
				Sources: cli.EnvVars("RUN_ENGINE"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule for retrying stalled instances, empty to disable",
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

			logger := log.WithModule("bizflow-api")

			logger.InfoContext(ctx, "Initializing bizflow API")

			shutdownTracing := cmd.NewTracing(ctx, command.Bool("tracing"), "bizflow-api", logger)
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

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "bizflow-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			instanceLocker, closeLocker := cmd.NewLocker(ctx, command.String("locker-url"), logger)
			defer func() {
				if err := closeLocker(); err != nil {
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

			if command.Bool("run-engine") {
				err = eng.Subscribe(eventBus)
				if err != nil {
					return err
				}

				err = eventBus.Subscribe(ctx)
				if err != nil {
					return err
				}
			} else if command.String("event-bus") == "gochannel" {
				logger.WarnContext(ctx, "Engine disabled on an in-memory bus, instances will not advance")
			}

			if schedule := command.String("sweep-schedule"); schedule != "" {
				sweep, err := sweeper.New(schedule, eng, logger)
				if err != nil {
					return err
				}

				err = sweep.Start(ctx)
				if err != nil {
					return err
				}

				defer func() { _ = sweep.Stop(context.WithoutCancel(ctx)) }()
			}

			api := NewAPI(logger, persistence, eventBus, eng, doneStatuses)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
