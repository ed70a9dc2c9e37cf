package service

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/audit"
	"taskmanager/pkg/platform/sentinel"
)

// DeleteAccount removes the user's tasks and then the user in one
// transaction. The cancellation email is queued only after commit.
func (s *Service) DeleteAccount(ctx context.Context, userID id.UserID) (*models.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.DeleteAccount")
	defer span.End()

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}

	var deleted *models.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores AccountStores) error {
		// Capture the user before deletion to address the email.
		user, err := stores.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
		}

		purged, err := stores.Tasks.DeleteByOwner(ctx, userID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user tasks")
		}
		if purged > 0 {
			s.logAudit(ctx, audit.EventTasksPurged, user, strconv.Itoa(purged))
		}

		if err := stores.Users.Delete(ctx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
		}
		s.logAudit(ctx, audit.EventUserDeleted, user, "")

		span.SetAttributes(attribute.Int("tasks.purged", purged))
		deleted = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementUsersDeleted()
	s.notifier.NotifyCancellation(ctx, deleted.Email, deleted.Name)
	return deleted, nil
}
