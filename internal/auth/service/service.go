package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"taskmanager/internal/auth/models"
	"taskmanager/internal/platform/metrics"
	rlmodels "taskmanager/internal/ratelimit/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/audit"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,TaskStore,Notifier,AuditPublisher,LockoutService,TokenSigner

// UserStore is the credential store. Implementations report missing records
// with sentinel.ErrNotFound and email collisions with sentinel.ErrConflict.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
	AppendToken(ctx context.Context, userID id.UserID, token string) error
	RemoveToken(ctx context.Context, userID id.UserID, token string) error
	ClearTokens(ctx context.Context, userID id.UserID) error
	HasToken(ctx context.Context, userID id.UserID, token string) (bool, error)
}

// TaskStore is the slice of the task store account deletion needs.
type TaskStore interface {
	DeleteByOwner(ctx context.Context, ownerID id.UserID) (int, error)
}

// AccountStores are the stores bound to one transaction.
type AccountStores struct {
	Users UserStore
	Tasks TaskStore
}

// AccountTx runs fn inside a transactional boundary. The ctx passed to fn
// carries the transaction for stores that join it implicitly.
type AccountTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores AccountStores) error) error
}

// Notifier sends account emails best-effort; it never reports failure.
type Notifier interface {
	NotifyWelcome(ctx context.Context, email, name string)
	NotifyCancellation(ctx context.Context, email, name string)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type LockoutService interface {
	Check(ctx context.Context, identifier, ip string) (*rlmodels.AuthLockoutResult, error)
	RecordFailure(ctx context.Context, identifier, ip string) (*rlmodels.AuthLockout, error)
	Clear(ctx context.Context, identifier, ip string) error
}

// TokenSigner is satisfied by *jwttoken.JWTService.
type TokenSigner interface {
	GenerateToken(userID id.UserID) (string, error)
	ExtractUserID(token string) (id.UserID, error)
}

// Service covers authentication and the account lifecycle: signup, login,
// token validation, profile changes and account deletion.
type Service struct {
	users          UserStore
	tx             AccountTx
	signer         TokenSigner
	notifier       Notifier
	auditPublisher AuditPublisher
	lockout        LockoutService
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	bcryptCost     int
	dummyHash      []byte
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithLockout(lockout LockoutService) Option {
	return func(s *Service) {
		s.lockout = lockout
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBcryptCost lowers the work factor in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(users UserStore, tx AccountTx, signer TokenSigner, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if tx == nil {
		return nil, errors.New("account transaction runner is required")
	}
	if signer == nil {
		return nil, errors.New("token signer is required")
	}

	svc := &Service{
		users:      users,
		tx:         tx,
		signer:     signer,
		notifier:   noopNotifier{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("taskmanager/auth"),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("login-timing-equalizer"), svc.bcryptCost)
	if err != nil {
		return nil, err
	}
	svc.dummyHash = dummy
	return svc, nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyWelcome(context.Context, string, string)      {}
func (noopNotifier) NotifyCancellation(context.Context, string, string) {}
