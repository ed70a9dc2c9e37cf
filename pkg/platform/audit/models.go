// Package audit records account-lifecycle and security events.
//
// Services emit Events through a Publisher; stores persist them. Audit is a
// side channel: a failure to record never fails the operation being audited.
package audit

import (
	"context"
	"time"

	id "taskmanager/pkg/domain"
)

// EventCategory classifies events for retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers account creation and deletion.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers authentication failures, revocations and lockouts.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity such as token issuance.
	CategoryOperations EventCategory = "operations"
)

// Event is transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Reason    string
	Email     string
	RequestID string
	IP        string
	Device    string
}

type AuditEvent string

const (
	EventUserCreated          AuditEvent = "user_created"
	EventUserDeleted          AuditEvent = "user_deleted"
	EventProfileUpdated       AuditEvent = "profile_updated"
	EventAvatarUpdated        AuditEvent = "avatar_updated"
	EventTokenIssued          AuditEvent = "token_issued"
	EventSessionRevoked       AuditEvent = "session_revoked"
	EventSessionsRevoked      AuditEvent = "sessions_revoked"
	EventAuthFailed           AuditEvent = "auth_failed"
	EventAuthLockoutTriggered AuditEvent = "auth_lockout_triggered"
	EventAuthLockoutCleared   AuditEvent = "auth_lockout_cleared"
	EventTasksPurged          AuditEvent = "tasks_purged"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated: CategoryCompliance,
	EventUserDeleted: CategoryCompliance,
	EventTasksPurged: CategoryCompliance,

	EventAuthFailed:           CategorySecurity,
	EventSessionRevoked:       CategorySecurity,
	EventSessionsRevoked:      CategorySecurity,
	EventAuthLockoutTriggered: CategorySecurity,
	EventAuthLockoutCleared:   CategorySecurity,
	EventProfileUpdated:       CategorySecurity,

	EventTokenIssued:   CategoryOperations,
	EventAvatarUpdated: CategoryOperations,
}

// Category returns the category for e. Unknown events are operations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
