// Package guard protects the admin area. It runs after the session resolver
// and only reads the verified session from the request context.
package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"dashgate/internal/platform/metrics"
	"dashgate/pkg/requestcontext"
)

const (
	decisionSkipped    = "skipped"
	decisionPublic     = "public"
	decisionAllowed    = "allowed"
	decisionRedirected = "redirected"
)

// DefaultAdminPrefixes is used when none are configured.
var DefaultAdminPrefixes = []string{"/admin"}

type Guard struct {
	adminPrefixes []string
	signIn        string
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

// WithSignIn sets the redirect target for refused requests.
func WithSignIn(path string) Option {
	return func(g *Guard) { g.signIn = path }
}

func New(adminPrefixes []string, opts ...Option) *Guard {
	if len(adminPrefixes) == 0 {
		adminPrefixes = DefaultAdminPrefixes
	}
	g := &Guard{adminPrefixes: adminPrefixes, signIn: "/sign-in"}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Middleware redirects admin-area requests to sign-in unless the caller's
// session carries the admin role. All other requests pass unmodified.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !Evaluated(path) {
			g.metrics.IncGuardDecision(decisionSkipped)
			next.ServeHTTP(w, r)
			return
		}
		if !g.isAdminPath(path) {
			g.metrics.IncGuardDecision(decisionPublic)
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		session, ok := requestcontext.SessionFrom(ctx)
		if ok && session.IsAdmin() {
			g.metrics.IncGuardDecision(decisionAllowed)
			next.ServeHTTP(w, r)
			return
		}

		g.metrics.IncGuardDecision(decisionRedirected)
		g.logger.InfoContext(ctx, "admin route refused",
			"path", path,
			"signed_in", ok,
			"request_id", requestcontext.RequestID(ctx),
		)
		http.Redirect(w, r, g.signIn, http.StatusTemporaryRedirect)
	})
}

// isAdminPath matches by plain prefix, so "/admin" also covers "/administrators".
func (g *Guard) isAdminPath(path string) bool {
	for _, prefix := range g.adminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
