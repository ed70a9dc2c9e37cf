package service

import (
	"context"
	"errors"

	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/sentinel"
)

var errUnauthenticated = dErrors.New(dErrors.CodeUnauthorized, "unauthenticated")

// IssueToken signs a new token and appends it to the user's active set.
// Earlier tokens stay valid.
func (s *Service) IssueToken(ctx context.Context, userID id.UserID) (string, error) {
	token, err := s.signer.GenerateToken(userID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	if err := s.users.AppendToken(ctx, userID, token); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store token")
	}
	return token, nil
}

// ValidateToken checks the signature and that the token is still in the
// referenced user's active set.
func (s *Service) ValidateToken(ctx context.Context, token string) (id.UserID, error) {
	userID, err := s.signer.ExtractUserID(token)
	if err != nil {
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "unauthenticated")
	}

	active, err := s.users.HasToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.UserID{}, errUnauthenticated
		}
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token")
	}
	if !active {
		return id.UserID{}, errUnauthenticated
	}
	return userID, nil
}

// RevokeToken removes token from the user's set. Revoking twice is harmless.
func (s *Service) RevokeToken(ctx context.Context, userID id.UserID, token string) error {
	if err := s.users.RemoveToken(ctx, userID, token); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}

// RevokeAll empties the user's token set.
func (s *Service) RevokeAll(ctx context.Context, userID id.UserID) error {
	if err := s.users.ClearTokens(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke tokens")
	}
	return nil
}
