package main

import (
	"context"
	"os"

	"github.com/dukex/bizflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	err := newApp().Run(context.Background(), os.Args)
	if err != nil {
		log.WithModule("bizflow-ctl").Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "bizflow-ctl",
		Usage:                 "Administer process definitions and instances",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "done-statuses",
				Usage:   "Comma separated task statuses that complete a step, as configured on the workers",
				Value:   "done",
				Sources: cli.EnvVars("DONE_STATUSES"),
			},
			&cli.StringFlag{
				Name:    "locker-url",
				Usage:   "Instance lock backend shared with the workers (memory or redis://)",
				Value:   "memory",
				Sources: cli.EnvVars("LOCKER_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus for lifecycle events (kafka), empty to publish nothing",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "chat-webhook-url",
				Usage:   "Webhook receiving process notifications",
				Sources: cli.EnvVars("CHAT_WEBHOOK_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import process definitions from a JSON document",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "merge keeps unlisted definitions, replace drops them",
						Value: "merge",
					},
				},
				Action: importAction,
			},
			{
				Name:  "export",
				Usage: "Export all process definitions as a JSON document",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: exportAction,
			},
			{
				Name:      "start",
				Usage:     "Start an instance of a process",
				ArgsUsage: "<process-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "initiator",
						Usage:    "User starting the process",
						Required: true,
					},
				},
				Action: startAction,
			},
			{
				Name:   "retry-stalled",
				Usage:  "Retry every stalled instance once",
				Action: retryStalledAction,
			},
			{
				Name:   "check-org",
				Usage:  "Validate the org hierarchy for cycles",
				Action: checkOrgAction,
			},
		},
	}
}
