// Package notify carries the short user-facing messages every action ends with.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kinds of notification.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

// Notification is a transient message about the outcome of a user action.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Account   string    `json:"account,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a notification with a fresh ID.
func New(kind, message, account string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Account:   account,
		CreatedAt: time.Now().UTC(),
	}
}

// Success creates a success notification.
func Success(message, account string) *Notification { return New(KindSuccess, message, account) }

// Error creates an error notification.
func Error(message, account string) *Notification { return New(KindError, message, account) }

// Notifier delivers notifications to whoever is listening.
type Notifier interface {
	// Publish delivers n to current subscribers. Publishing never waits for slow subscribers.
	Publish(ctx context.Context, n *Notification) error

	// Subscribe returns a channel of notifications and a function that ends the subscription.
	Subscribe() (<-chan *Notification, func())

	// Close releases the notifier. Subscriber channels are closed.
	Close() error
}
