package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "dashgate/pkg/domain"
	"dashgate/pkg/requestcontext"
)

// SessionResolver turns a provider session token into a verified session.
type SessionResolver interface {
	Resolve(tokenString string) (requestcontext.Session, error)
}

// RevocationChecker reports sessions signed out through this service whose
// tokens have not expired yet.
type RevocationChecker interface {
	IsSessionRevoked(ctx context.Context, sessionID id.SessionID) (bool, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// tokenFrom reads the bearer token first, then the session cookie.
func tokenFrom(r *http.Request, cookieName string) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// isRevoked fails closed: a checker error counts as revoked.
func isRevoked(ctx context.Context, checker RevocationChecker, sessionID id.SessionID, logger *slog.Logger) bool {
	if checker == nil {
		return false
	}
	revoked, err := checker.IsSessionRevoked(ctx, sessionID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check session revocation",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return true
	}
	if revoked {
		logger.WarnContext(ctx, "revoked session presented",
			"session_id", sessionID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return revoked
}

// ResolveSession attaches the caller's session to the request context when a
// valid, unrevoked token is presented. Requests without one pass through
// anonymous; access decisions belong to the route guard and RequireSession.
func ResolveSession(resolver SessionResolver, checker RevocationChecker, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := tokenFrom(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := resolver.Resolve(token)
			if err != nil {
				logger.DebugContext(ctx, "ignoring invalid session token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			if isRevoked(ctx, checker, session.SessionID, logger) {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSession(ctx, session)))
		})
	}
}

// RequireSession rejects requests that ResolveSession left anonymous.
func RequireSession(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := requestcontext.SessionFrom(ctx); !ok {
				logger.WarnContext(ctx, "unauthorized access - no session",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Sign in required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
