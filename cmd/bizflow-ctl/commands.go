package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dukex/bizflow/pkg/cmd"
	"github.com/dukex/bizflow/pkg/engine"
	"github.com/dukex/bizflow/pkg/log"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/dukex/bizflow/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var errMissingArgument = errors.New("missing argument")

func withPersistence(
	ctx context.Context,
	command *cli.Command,
	fn func(logger *slog.Logger, p persistence.Persistence) error,
) error {
	logger := log.WithModule("bizflow-ctl")

	p := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		err := p.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	return fn(logger, p)
}

// withEngine builds an engine configured like the workers: same done-set, same
// instance locker, same notifier and, when set, the same event bus.
func withEngine(
	ctx context.Context,
	command *cli.Command,
	fn func(eng *engine.Engine) error,
) error {
	doneStatuses, err := cmd.ParseDoneStatuses(command.String("done-statuses"))
	if err != nil {
		return err
	}

	return withPersistence(ctx, command, func(logger *slog.Logger, p persistence.Persistence) error {
		instanceLocker, closeLocker := cmd.NewLocker(ctx, command.String("locker-url"), logger)
		defer func() {
			err := closeLocker()
			if err != nil {
				logger.ErrorContext(ctx, "Failed to close locker", "error", err)
			}
		}()

		config := cmd.EngineConfig{
			Persistence:  p,
			Notifier:     cmd.NewNotifier(command.String("chat-webhook-url"), logger),
			Locker:       instanceLocker,
			DoneStatuses: doneStatuses,
		}

		if provider := command.String("event-bus"); provider != "" {
			eventBus := cmd.NewEventBus(provider, command.String("kafka-brokers"), "bizflow-ctl", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			config.Publisher = eventBus
		}

		return fn(cmd.NewEngine(logger, config))
	})
}

func importAction(ctx context.Context, command *cli.Command) error {
	path := command.Args().First()
	if path == "" {
		return fmt.Errorf("%w: document file", errMissingArgument)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	return withPersistence(ctx, command, func(_ *slog.Logger, p persistence.Persistence) error {
		imported, err := services.NewProcess(p).ImportDocument(ctx, raw, services.ImportMode(command.String("mode")))
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(command.Root().Writer, "imported %d process definitions\n", len(imported))

		return err
	})
}

func exportAction(ctx context.Context, command *cli.Command) error {
	return withPersistence(ctx, command, func(_ *slog.Logger, p persistence.Persistence) error {
		document, err := services.NewProcess(p).Export(ctx)
		if err != nil {
			return err
		}

		var out io.Writer = command.Root().Writer

		if path := command.String("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()

			out = f
		}

		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(document)
	})
}

func startAction(ctx context.Context, command *cli.Command) error {
	processID := command.Args().First()
	if processID == "" {
		return fmt.Errorf("%w: process id", errMissingArgument)
	}

	return withEngine(ctx, command, func(eng *engine.Engine) error {
		instance, err := eng.StartProcess(ctx, processID, command.String("initiator"))
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(command.Root().Writer, "started instance %s at step %s\n", instance.ID, instance.CurrentStep())

		return err
	})
}

func retryStalledAction(ctx context.Context, command *cli.Command) error {
	return withEngine(ctx, command, func(eng *engine.Engine) error {
		resumed, err := eng.RetryStalled(ctx)

		_, printErr := fmt.Fprintf(command.Root().Writer, "resumed %d stalled instances\n", resumed)

		return errors.Join(err, printErr)
	})
}

func checkOrgAction(ctx context.Context, command *cli.Command) error {
	return withPersistence(ctx, command, func(_ *slog.Logger, p persistence.Persistence) error {
		directory, err := services.NewOrg(p).Directory(ctx)
		if err != nil {
			return err
		}

		err = directory.Validate()
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(command.Root().Writer, "org hierarchy is valid (%d roots)\n", len(directory.Roots()))

		return err
	})
}
