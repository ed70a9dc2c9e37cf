package service

import (
	"context"

	"taskmanager/internal/auth/models"
	"taskmanager/pkg/platform/audit"
	"taskmanager/pkg/platform/middleware/metadata"
	"taskmanager/pkg/requestcontext"
)

// logAudit records an event in the log and, when configured, the audit
// store. Publisher failures are logged only.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, user *models.User, reason string) {
	e := audit.Event{
		Action:    string(event),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
		Device:    metadata.DeviceName(requestcontext.UserAgent(ctx)),
	}
	if user != nil {
		e.UserID = user.ID
		e.Subject = user.ID.String()
		e.Email = user.Email
	}

	s.logger.InfoContext(ctx, string(event),
		"user_id", e.Subject,
		"reason", reason,
		"request_id", e.RequestID,
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(event),
			"error", err,
			"request_id", e.RequestID,
		)
	}
}
