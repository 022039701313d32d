// Package notify announces process progress to operators and assignees.
package notify

import (
	"context"
	"errors"
)

type Kind string

const (
	KindStarted   Kind = "started"
	KindAdvanced  Kind = "advanced"
	KindStalled   Kind = "stalled"
	KindCompleted Kind = "completed"
)

// Message is a plain text announcement about a process instance.
type Message struct {
	Kind       Kind     `json:"kind"`
	Text       string   `json:"text"`
	ProcessID  string   `json:"process_id,omitempty"`
	InstanceID string   `json:"instance_id,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
}

// Notifier delivers messages. Callers treat delivery as best effort.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error

	for _, notifier := range m {
		if err := notifier.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
