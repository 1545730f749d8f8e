package audit

import (
	"context"
	"time"

	id "dashgate/pkg/domain"
)

// Event is emitted from the auth flows and account operations to capture key
// actions. Keep it transport-agnostic so stores and sinks can fan out.
// Never put passwords, codes, or raw emails in Subject or Reason.
type Event struct {
	Timestamp   time.Time
	Action      string
	PrincipalID id.PrincipalID
	SessionID   id.SessionID
	// Subject is what the action targeted: a revoked session, or a hashed email
	// reference when no principal exists yet.
	Subject   string
	Outcome   string
	Reason    string
	RequestID string
	ClientIP  string
	UserAgent string
}

type AuditEvent string

const (
	EventSignUpCompleted AuditEvent = "sign_up_completed"
	EventSignIn          AuditEvent = "sign_in"
	EventSignOut         AuditEvent = "sign_out"
	EventPasswordReset   AuditEvent = "password_reset"
	EventSessionRevoked  AuditEvent = "session_revoked"
	EventSessionsRevoked AuditEvent = "sessions_revoked"
	EventProfileUpdated  AuditEvent = "profile_updated"
	EventAvatarUpdated   AuditEvent = "avatar_updated"
	EventPasswordChanged AuditEvent = "password_changed"
	EventAccountDeleted  AuditEvent = "account_deleted"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Store persists audit events. Implementations are append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPrincipal(ctx context.Context, principalID id.PrincipalID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
