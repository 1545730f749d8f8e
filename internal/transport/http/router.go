package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dashgate/internal/guard"
	"dashgate/internal/platform/health"
	"dashgate/pkg/platform/middleware/auth"
	"dashgate/pkg/platform/middleware/metadata"
	"dashgate/pkg/platform/middleware/request"
)

// maxBodyBytes leaves room for the largest avatar upload.
const maxBodyBytes = 6 << 20

// Mounter is a domain handler that registers its own routes.
type Mounter interface {
	Register(r chi.Router)
}

// Deps are the collaborators the router wires together. Flows is public;
// Account routes require a resolved session.
type Deps struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	TrustedProxies *metadata.Middleware
	RequestMetrics *request.Metrics
	Gatherer       prometheus.Gatherer

	Sessions    auth.SessionResolver
	Revocations auth.RevocationChecker
	CookieName  string
	Guard       *guard.Guard

	Health  *health.Handler
	Flows   Mounter
	Account Mounter
}

// NewRouter wires all public endpoints with middleware. The session is
// resolved before the route guard runs so the guard can read it.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	if d.TrustedProxies != nil {
		r.Use(d.TrustedProxies.Handler)
	}
	r.Use(request.Logger(d.Logger))
	if d.RequestMetrics != nil {
		r.Use(request.Latency(d.RequestMetrics))
	}
	if d.RequestTimeout > 0 {
		r.Use(request.Timeout(d.RequestTimeout))
	}
	r.Use(request.BodyLimit(maxBodyBytes))
	r.Use(request.RequireContentType("application/json", "image/*", "application/octet-stream"))
	r.Use(auth.ResolveSession(d.Sessions, d.Revocations, d.CookieName, d.Logger))
	if d.Guard != nil {
		r.Use(d.Guard.Middleware)
	}

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	if d.Flows != nil {
		d.Flows.Register(r)
	}
	if d.Account != nil {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(d.Logger))
			d.Account.Register(r)
		})
	}

	return r
}
