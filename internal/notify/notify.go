package notify

import (
	"context"
	"time"
)

const sendTimeout = 25 * time.Second

// Message is one rendered alert ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// Notifier is implemented by every delivery channel.
type Notifier interface {
	// Type returns the channel identifier, e.g. "mailjet" or "slack".
	Type() string

	// Send delivers msg. A non-nil error means delivery failed and the
	// alert must not be marked as sent.
	Send(ctx context.Context, msg Message) error
}
