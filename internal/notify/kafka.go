package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"taskmanager/internal/platform/kafka"
	"taskmanager/internal/platform/metrics"
	"taskmanager/pkg/email"
)

const headerKind = "notification-kind"

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaSender publishes messages to a topic instead of sending them, so
// delivery survives a provider outage and runs in cmd/mailer.
type KafkaSender struct {
	publisher Publisher
	topic     string
}

func NewKafkaSender(publisher Publisher, topic string) *KafkaSender {
	return &KafkaSender{publisher: publisher, topic: topic}
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return s.publisher.Publish(ctx, s.topic, []byte(msg.To), value, map[string]string{
		headerKind: string(msg.Kind),
	})
}

// MailHandler consumes published messages and sends them with sender.
// Undecodable records and delivery failures are logged and skipped so one
// bad message cannot stall the partition.
func MailHandler(sender Sender, logger *slog.Logger, m *metrics.Metrics) kafka.Handler {
	return kafka.HandlerFunc(func(ctx context.Context, rec *kafka.Message) error {
		var msg Message
		if err := json.Unmarshal(rec.Value, &msg); err != nil {
			logger.ErrorContext(ctx, "skipping undecodable notification",
				"topic", rec.Topic,
				"error", err,
			)
			return nil
		}

		if err := sender.Send(ctx, msg); err != nil {
			m.IncrementNotification(string(msg.Kind), outcomeFailed)
			logger.ErrorContext(ctx, "notification failed",
				"kind", string(msg.Kind),
				"to", email.Mask(msg.To),
				"error", err,
				"request_id", msg.RequestID,
			)
			return nil
		}
		m.IncrementNotification(string(msg.Kind), outcomeSent)
		return nil
	})
}
