package authlockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"taskmanager/internal/ratelimit/models"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/audit"
	"taskmanager/pkg/requestcontext"
)

const (
	defaultAttempts = 5
	defaultWindow   = 15 * time.Minute
)

// Store persists failure counters. Get returns nil, nil for unknown keys.
type Store interface {
	RecordFailure(ctx context.Context, key string, window time.Duration) (*models.AuthLockout, error)
	Get(ctx context.Context, key string) (*models.AuthLockout, error)
	Clear(ctx context.Context, key string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service locks an identifier/IP pair out of login after repeated failures.
type Service struct {
	store          Store
	auditPublisher AuditPublisher
	logger         *slog.Logger
	attempts       int
	window         time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithLimits overrides the attempt budget and window. Non-positive values
// keep the defaults.
func WithLimits(attempts int, window time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if window > 0 {
			s.window = window
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth lockout store is required")
	}
	svc := &Service{
		store:    store,
		logger:   slog.Default(),
		attempts: defaultAttempts,
		window:   defaultWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check reports whether a login attempt may proceed.
func (s *Service) Check(ctx context.Context, identifier, ip string) (*models.AuthLockoutResult, error) {
	key := models.NewAuthLockoutKey(identifier, ip).String()
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get auth lockout record")
	}

	now := requestcontext.Now(ctx)
	if record.IsLockedAt(now, s.attempts) {
		return &models.AuthLockoutResult{
			Allowed:    false,
			RetryAfter: record.WindowEnd.Sub(now),
		}, nil
	}
	return &models.AuthLockoutResult{
		Allowed:   true,
		Remaining: record.RemainingAttempts(now, s.attempts),
	}, nil
}

// RecordFailure counts one failed attempt and emits an audit event when it
// exhausts the budget.
func (s *Service) RecordFailure(ctx context.Context, identifier, ip string) (*models.AuthLockout, error) {
	key := models.NewAuthLockoutKey(identifier, ip).String()
	current, err := s.store.RecordFailure(ctx, key, s.window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record auth failure")
	}

	if current.FailureCount == s.attempts {
		s.emit(ctx, audit.EventAuthLockoutTriggered, identifier, ip, "too many failed attempts")
	}
	return current, nil
}

// Clear resets the counter after a successful login.
func (s *Service) Clear(ctx context.Context, identifier, ip string) error {
	key := models.NewAuthLockoutKey(identifier, ip).String()
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to get auth lockout record")
	}
	if record == nil {
		return nil
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear auth failures")
	}
	s.emit(ctx, audit.EventAuthLockoutCleared, identifier, ip, "")
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, identifier, ip, reason string) {
	s.logger.InfoContext(ctx, string(event),
		"identifier", identifier,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		Email:     identifier,
		Subject:   identifier,
		Reason:    reason,
		IP:        ip,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(event),
			"error", err,
		)
	}
}
