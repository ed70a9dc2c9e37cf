package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/audit"
	"taskmanager/pkg/platform/sentinel"
	"taskmanager/pkg/requestcontext"
)

const (
	loginSuccess            = "success"
	loginInvalidCredentials = "invalid_credentials"
	loginLocked             = "locked"
)

var errInvalidCredentials = dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")

// Signup creates an account holding one active token and queues the welcome
// email.
func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Signup")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	userID := id.NewUserID()
	token, err := s.signer.GenerateToken(userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	user := &models.User{
		ID:           userID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Tokens:       []string{token},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already in use")
		}
		span.SetStatus(codes.Error, "create user failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	s.logAudit(ctx, audit.EventUserCreated, user, "")
	s.metrics.IncrementUsersCreated()
	s.notifier.NotifyWelcome(ctx, user.Email, user.Name)

	return &models.AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues an additional token. Unknown email
// and wrong password return the same error after the same bcrypt work.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	ip := requestcontext.ClientIP(ctx)

	if s.lockout != nil {
		result, err := s.lockout.Check(ctx, req.Email, ip)
		if err != nil {
			return nil, err
		}
		if !result.Allowed {
			s.metrics.IncrementLogin(loginLocked)
			return nil, dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts, try again later")
		}
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}
		s.burnPasswordCheck(req.Password)
		return nil, s.loginFailed(ctx, req.Email, ip, nil)
	}
	if !s.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, req.Email, ip, user)
	}

	token, err := s.IssueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Tokens = append(user.Tokens, token)

	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, req.Email, ip); err != nil {
			s.logger.WarnContext(ctx, "failed to clear auth lockout",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	s.logAudit(ctx, audit.EventTokenIssued, user, "login")
	s.metrics.IncrementLogin(loginSuccess)

	return &models.AuthResult{User: user, Token: token}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, ip string, user *models.User) error {
	if s.lockout != nil {
		if _, err := s.lockout.RecordFailure(ctx, email, ip); err != nil {
			s.logger.WarnContext(ctx, "failed to record auth failure",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	s.logAudit(ctx, audit.EventAuthFailed, user, loginInvalidCredentials)
	s.metrics.IncrementLogin(loginInvalidCredentials)
	return errInvalidCredentials
}
