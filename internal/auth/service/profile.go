package service

import (
	"context"
	"encoding/json"
	"errors"

	"taskmanager/internal/auth/avatar"
	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/audit"
	"taskmanager/pkg/platform/sentinel"
)

// Authenticate resolves a bearer token to its user. A deleted user is
// reported as unauthenticated, not missing.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errUnauthenticated
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findUser(ctx, userID)
}

// UpdateProfile applies an allow-listed patch. Any unsupported key rejects
// the request before the store is touched.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, raw map[string]json.RawMessage) (*models.User, error) {
	patch, err := models.ParseProfilePatch(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return user, nil
	}

	var hash string
	if patch.Password != nil {
		if hash, err = s.HashPassword(*patch.Password); err != nil {
			return nil, err
		}
	}
	if patch.HasAvatar() && !patch.ClearAvatar {
		normalized, err := avatar.Normalize(patch.Avatar)
		if err != nil {
			return nil, err
		}
		patch.Avatar = normalized
	}

	patch.Apply(user, hash, s.now().UTC())
	if err := s.saveUser(ctx, user); err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventProfileUpdated, user, "")
	return user, nil
}

// UploadAvatar replaces the stored avatar with an already normalized PNG.
func (s *Service) UploadAvatar(ctx context.Context, userID id.UserID, png []byte) error {
	return s.setAvatar(ctx, userID, png, "uploaded")
}

func (s *Service) DeleteAvatar(ctx context.Context, userID id.UserID) error {
	return s.setAvatar(ctx, userID, nil, "deleted")
}

// Avatar returns the stored PNG for public display.
func (s *Service) Avatar(ctx context.Context, userID id.UserID) ([]byte, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasAvatar() {
		return nil, dErrors.New(dErrors.CodeNotFound, "avatar not found")
	}
	return user.Avatar, nil
}

func (s *Service) setAvatar(ctx context.Context, userID id.UserID, png []byte, reason string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Avatar = png
	user.UpdatedAt = s.now().UTC()
	if err := s.saveUser(ctx, user); err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventAvatarUpdated, user, reason)
	return nil
}

func (s *Service) findUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) saveUser(ctx context.Context, user *models.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "email already in use")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	return nil
}
