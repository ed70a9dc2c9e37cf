package notify

import (
	"context"
	"log/slog"

	"taskmanager/pkg/email"
)

// LogSender records messages instead of sending them. Used when no mail
// provider is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "notification",
		"kind", string(msg.Kind),
		"to", email.Mask(msg.To),
		"subject", msg.Subject,
		"request_id", msg.RequestID,
	)
	return nil
}
