// Package requestcontext carries per-request values set by middleware and read by handlers.
package requestcontext

import (
	"context"
	"time"

	id "dashgate/pkg/domain"
)

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyClientIP
	keyUserAgent
	keySession
	keyTime
)

// Session is the verified identity of the caller, resolved from the provider's
// session token. It is read-only: nothing downstream mutates it.
type Session struct {
	PrincipalID id.PrincipalID
	SessionID   id.SessionID
	Role        string
	ExpiresAt   time.Time
}

// IsAdmin reports whether the role claim grants the admin area.
func (s Session) IsAdmin() bool { return s.Role == "admin" }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithClientMetadata stores the resolved client IP and user agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, clientIP)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(keyUserAgent).(string)
	return v
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, keySession, s)
}

// SessionFrom returns the caller's session and whether one was resolved.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(keySession).(Session)
	return s, ok && !s.PrincipalID.IsNil()
}

// WithTime pins "now" for the request so every layer sees the same instant.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyTime, t)
}

// Now returns the pinned request time, or the wall clock when none was set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(keyTime).(time.Time); ok {
		return t
	}
	return time.Now()
}
