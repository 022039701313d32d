package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, msg.Text,
		"kind", msg.Kind,
		"process_id", msg.ProcessID,
		"instance_id", msg.InstanceID,
		"recipients", msg.Recipients,
	)

	return nil
}
