// Package notify tells buyers, vendors and the platform what happened to
// an order. Delivery is best effort: a failed notification never undoes a
// committed transition.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Audience string

const (
	AudienceBuyer    Audience = "buyer"
	AudienceVendor   Audience = "vendor"
	AudiencePlatform Audience = "platform"
)

type Notification struct {
	Audience    Audience  `json:"audience"`
	RecipientID string    `json:"recipient_id,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	OrderNumber string    `json:"order_number,omitempty"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Log writes notifications to the structured log.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"audience", n.Audience,
		"recipient", n.RecipientID,
		"order_id", n.OrderID,
		"kind", n.Kind,
		"message", n.Message,
	)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) error { return nil }
