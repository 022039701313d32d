package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	breakerOpenTimeout    = 30 * time.Second
	breakerFailureLimit   = 5
)

var ErrWebhookStatus = errors.New("chat webhook returned an error status")

// WebhookNotifier posts messages as JSON to a chat bot webhook. A circuit breaker
// stops hammering the endpoint after consecutive failures.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	logger = logger.With("module", "webhook_notifier")

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "chat-webhook",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureLimit
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: defaultWebhookTimeout},
		breaker: breaker,
		logger:  logger,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, payload)
	})
	if err != nil {
		return fmt.Errorf("chat webhook delivery failed: %w", err)
	}

	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)

		if closeErr := resp.Body.Close(); closeErr != nil {
			n.logger.ErrorContext(ctx, "failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %d", ErrWebhookStatus, resp.StatusCode)
	}

	return nil
}
