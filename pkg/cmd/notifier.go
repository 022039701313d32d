package cmd

import (
	"log/slog"

	"github.com/dukex/bizflow/pkg/notify"
)

// NewNotifier always logs notifications and also posts them to webhookURL when set.
func NewNotifier(webhookURL string, logger *slog.Logger) notify.Notifier {
	notifiers := notify.Multi{notify.NewLogNotifier(logger)}

	if webhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(webhookURL, logger))
	}

	return notifiers
}
