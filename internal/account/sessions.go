package account

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"dashgate/internal/account/device"
	"dashgate/internal/account/models"
	"dashgate/internal/identity"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/requestcontext"
)

// ListSessions returns the caller's active sessions, most recent first.
func (s *Service) ListSessions(ctx context.Context, caller requestcontext.Session) (models.SessionList, error) {
	sessions, err := s.client.ListSessions(ctx, caller.PrincipalID)
	if err != nil {
		s.logProviderFailure(ctx, "list_sessions", err)
		return models.SessionList{}, providerError(err, "failed to list sessions")
	}
	return s.sessionList(sessions, caller.SessionID), nil
}

// RevokeSession signs out one of the caller's sessions. Sessions of other
// principals are reported as not found.
func (s *Service) RevokeSession(ctx context.Context, caller requestcontext.Session, sessionID id.SessionID) (models.RevokeResult, error) {
	if sessionID.IsNil() {
		return models.RevokeResult{}, dErrors.New(dErrors.CodeBadRequest, "session ID required")
	}

	release, err := s.acquire(ctx, "revoke_session", caller)
	if err != nil {
		return models.RevokeResult{}, err
	}
	defer release()

	sessions, err := s.client.ListSessions(ctx, caller.PrincipalID)
	if err != nil {
		s.logProviderFailure(ctx, "list_sessions", err)
		return models.RevokeResult{}, providerError(err, "failed to list sessions")
	}
	if !slices.ContainsFunc(sessions, func(sess identity.Session) bool { return sess.ID == sessionID }) {
		s.logger.WarnContext(ctx, "session revoke rejected",
			"reason", "session_owner_mismatch",
			"session_id", sessionID,
			"principal_id", caller.PrincipalID,
		)
		return models.RevokeResult{}, dErrors.New(dErrors.CodeNotFound, "session not found")
	}

	if err := s.client.RevokeSession(ctx, sessionID); err != nil {
		s.logProviderFailure(ctx, "revoke_session", err)
		s.count("revoke_session", "failure")
		return models.RevokeResult{}, providerError(err, "failed to revoke session")
	}
	s.revokeLocally(ctx, sessionID)
	s.metrics.AddSessionsRevoked(1)
	s.count("revoke_session", "success")
	s.auditEvent(ctx, audit.EventSessionRevoked, caller, sessionID.String())

	remaining := slices.DeleteFunc(sessions, func(sess identity.Session) bool { return sess.ID == sessionID })
	return models.RevokeResult{
		SessionList: s.sessionList(remaining, caller.SessionID),
		SignedOut:   sessionID == caller.SessionID,
	}, nil
}

// RevokeAll signs out every session of the caller, optionally keeping the
// current one. Revocations are independent: one failure does not stop the
// others, and the counts report partial results.
func (s *Service) RevokeAll(ctx context.Context, caller requestcontext.Session, exceptCurrent bool) (models.RevokeAllResult, error) {
	release, err := s.acquire(ctx, "revoke_all", caller)
	if err != nil {
		return models.RevokeAllResult{}, err
	}
	defer release()

	sessions, err := s.client.ListSessions(ctx, caller.PrincipalID)
	if err != nil {
		s.logProviderFailure(ctx, "list_sessions", err)
		return models.RevokeAllResult{}, providerError(err, "failed to list sessions")
	}

	var revoked, failed atomic.Int32
	var currentRevoked atomic.Bool
	var g errgroup.Group
	g.SetLimit(revokeConcurrency)
	for _, sess := range sessions {
		if exceptCurrent && sess.ID == caller.SessionID {
			continue
		}
		g.Go(func() error {
			if err := s.client.RevokeSession(ctx, sess.ID); err != nil {
				failed.Add(1)
				s.logger.ErrorContext(ctx, "failed to revoke session during revoke-all",
					"error", err,
					"session_id", sess.ID,
					"principal_id", caller.PrincipalID,
				)
				return nil
			}
			s.revokeLocally(ctx, sess.ID)
			revoked.Add(1)
			if sess.ID == caller.SessionID {
				currentRevoked.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := models.RevokeAllResult{
		Revoked:   int(revoked.Load()),
		Failed:    int(failed.Load()),
		SignedOut: currentRevoked.Load(),
	}
	s.metrics.AddSessionsRevoked(result.Revoked)
	if result.Failed > 0 {
		s.count("revoke_all", "partial")
	} else {
		s.count("revoke_all", "success")
	}
	if result.Revoked > 0 {
		s.auditEvent(ctx, audit.EventSessionsRevoked, caller, fmt.Sprintf("revoked=%d failed=%d", result.Revoked, result.Failed))
	}
	return result, nil
}

// SignOut ends the caller's own session. The session is revoked locally even
// when the provider call fails, so this service stops honoring its token.
func (s *Service) SignOut(ctx context.Context, caller requestcontext.Session) error {
	s.revokeLocally(ctx, caller.SessionID)
	if err := s.client.RevokeSession(ctx, caller.SessionID); err != nil {
		s.logProviderFailure(ctx, "revoke_session", err)
		return providerError(err, "failed to sign out")
	}
	s.auditEvent(ctx, audit.EventSignOut, caller, caller.SessionID.String())
	return nil
}

func (s *Service) revokeLocally(ctx context.Context, sessionID id.SessionID) {
	if s.revocations == nil {
		return
	}
	if err := s.revocations.Revoke(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to record session revocation",
			"session_id", sessionID,
			"error", err,
		)
	}
}

func (s *Service) sessionList(sessions []identity.Session, current id.SessionID) models.SessionList {
	now := s.now()
	views := make([]models.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, models.SessionView{
			ID:           sess.ID,
			Device:       device.Name(sess.Activity),
			LastActiveAt: sess.LastActiveAt,
			LastActive:   "Last active " + humanize.RelTime(sess.LastActiveAt, now, "ago", "from now"),
			IsCurrent:    sess.ID == current,
		})
	}
	slices.SortStableFunc(views, func(a, b models.SessionView) int {
		return b.LastActiveAt.Compare(a.LastActiveAt)
	})

	list := models.SessionList{Sessions: views}
	if len(views) == 0 {
		list.EmptyText = models.NoSessionsText
	}
	return list
}
