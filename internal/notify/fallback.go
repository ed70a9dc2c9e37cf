package notify

import (
	"context"
	"log/slog"

	"taskmanager/pkg/platform/circuit"
)

// FallbackSender tries primary first. Once the breaker has opened, a failed
// primary send is handed to fallback instead of being reported.
type FallbackSender struct {
	primary  Sender
	fallback Sender
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackSender(primary, fallback Sender, breaker *circuit.Breaker, logger *slog.Logger) *FallbackSender {
	return &FallbackSender{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

func (s *FallbackSender) Send(ctx context.Context, msg Message) error {
	err := s.primary.Send(ctx, msg)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "mail provider recovered", "breaker", s.breaker.Name())
		}
		return nil
	}

	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.WarnContext(ctx, "mail provider failing, switching to fallback",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	if useFallback {
		return s.fallback.Send(ctx, msg)
	}
	return err
}
