// Package account backs the account page: the signed-in principal's devices,
// profile, avatar, password, and account deletion. Every change is made by
// the identity provider; this package sequences calls and shapes results.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"dashgate/internal/account/revocation"
	"dashgate/internal/identity"
	"dashgate/internal/platform/kvstore"
	"dashgate/internal/platform/metrics"
	"dashgate/internal/platform/pending"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/requestcontext"
)

const (
	defaultPreviewTTL = 10 * time.Minute
	// MaxAvatarBytes caps avatar uploads at 5 MiB.
	MaxAvatarBytes = 5 << 20
	// revokeConcurrency bounds parallel provider calls in RevokeAll.
	revokeConcurrency = 4
)

// PreviewPath serves the caller's pending avatar preview.
const PreviewPath = "/admin/account/avatar/preview"

type Service struct {
	client      identity.Client
	kv          kvstore.Store
	pending     *pending.Tracker
	revocations *revocation.List
	previewTTL  time.Duration
	home        string
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       *audit.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(a *audit.Logger) Option {
	return func(s *Service) { s.audit = a }
}

// WithClock overrides the time source used for "last active" text.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPreviewTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.previewTTL = ttl
		}
	}
}

// WithHome sets where a deleted account is sent.
func WithHome(path string) Option {
	return func(s *Service) { s.home = path }
}

func New(client identity.Client, kv kvstore.Store, tracker *pending.Tracker, revocations *revocation.List, opts ...Option) *Service {
	s := &Service{
		client:      client,
		kv:          kv,
		pending:     tracker,
		revocations: revocations,
		previewTTL:  defaultPreviewTTL,
		home:        "/",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) acquire(ctx context.Context, op string, caller requestcontext.Session) (func(), error) {
	return s.pending.Acquire(ctx, pending.AccountKey(op, caller.PrincipalID))
}

func (s *Service) count(op, outcome string) {
	s.metrics.IncAccountOperation(op, outcome)
}

func (s *Service) auditEvent(ctx context.Context, action audit.AuditEvent, caller requestcontext.Session, subject string) {
	s.audit.Log(ctx, audit.Event{
		Action:      string(action),
		PrincipalID: caller.PrincipalID,
		SessionID:   caller.SessionID,
		Subject:     subject,
		Outcome:     audit.OutcomeSuccess,
	})
}

func (s *Service) logProviderFailure(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "identity provider call failed",
		"operation", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// providerError translates a failed provider read into a domain error.
func providerError(err error, msg string) error {
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Unavailable():
			return &dErrors.Error{Code: dErrors.CodeProviderUnavailable, Message: msg, Err: err}
		case apiErr.Status == http.StatusNotFound:
			return &dErrors.Error{Code: dErrors.CodeNotFound, Message: msg, Err: err}
		}
		return &dErrors.Error{Code: dErrors.CodeProviderRejected, Message: msg, Err: err}
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
