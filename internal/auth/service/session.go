package service

import (
	"context"

	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/audit"
)

// Logout revokes only the token used for this request.
func (s *Service) Logout(ctx context.Context, userID id.UserID, token string) error {
	if err := s.RevokeToken(ctx, userID, token); err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventSessionRevoked, &models.User{ID: userID}, "logout")
	s.metrics.IncrementTokensRevoked("single")
	return nil
}

// LogoutAll revokes every token of the user, including the current one.
func (s *Service) LogoutAll(ctx context.Context, userID id.UserID) error {
	if err := s.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventSessionsRevoked, &models.User{ID: userID}, "logout_all")
	s.metrics.IncrementTokensRevoked("all")
	return nil
}
