// Package notify delivers account emails off the request path.
//
// Services call a Dispatcher through the Notifier methods. The dispatcher
// queues a Message on a bounded buffer and worker goroutines hand it to a
// Sender: SendGrid directly, a Kafka topic drained by cmd/mailer, or the log.
package notify

import (
	"context"
	"fmt"

	"taskmanager/pkg/email"
)

// Kind labels a message for metrics and routing.
type Kind string

const (
	KindWelcome      Kind = "welcome"
	KindCancellation Kind = "cancellation"
)

// Message is a rendered plain-text email. It is also the Kafka payload.
type Message struct {
	Kind      Kind   `json:"kind"`
	To        string `json:"to"`
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	RequestID string `json:"request_id,omitempty"`
}

// Sender hands a message to a delivery channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Welcome renders the signup email.
func Welcome(to, name string) Message {
	name = email.DisplayName(name, to)
	return Message{
		Kind:    KindWelcome,
		To:      to,
		Name:    name,
		Subject: "Thanks for joining in!",
		Text:    fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name),
	}
}

// Cancellation renders the account deletion email.
func Cancellation(to, name string) Message {
	name = email.DisplayName(name, to)
	return Message{
		Kind:    KindCancellation,
		To:      to,
		Name:    name,
		Subject: "Cancel account",
		Text:    fmt.Sprintf("Goodbye, %s!", name),
	}
}
