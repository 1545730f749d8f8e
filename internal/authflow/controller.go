// Package authflow drives the sign-up, sign-in, password reset, and federated
// sign-in flows against the identity provider. It owns no credentials: every
// decision is the provider's, and this package only sequences the calls and
// turns their results into view state.
package authflow

import (
	"context"
	"log/slog"

	"dashgate/internal/authflow/models"
	"dashgate/internal/authflow/store"
	"dashgate/internal/identity"
	"dashgate/internal/platform/metrics"
	"dashgate/internal/platform/pending"
	"dashgate/pkg/platform/audit"
)

// Routes are the navigation targets the flows emit.
type Routes struct {
	Home      string
	SignIn    string
	Dashboard string
	// FederatedCallback and FederatedComplete are handed to the provider for
	// the OAuth round trip.
	FederatedCallback string
	FederatedComplete string
}

func DefaultRoutes() Routes {
	return Routes{
		Home:              "/",
		SignIn:            "/sign-in",
		Dashboard:         "/admin/dashboard",
		FederatedCallback: "/sso-callback",
		FederatedComplete: "/dashboard",
	}
}

// Controller is safe for concurrent use; all per-browser state lives in the
// flow store.
type Controller struct {
	client  identity.Client
	flows   *store.FlowStore
	pending *pending.Tracker
	routes  Routes
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Logger
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithAudit(a *audit.Logger) Option {
	return func(c *Controller) { c.audit = a }
}

func WithRoutes(r Routes) Option {
	return func(c *Controller) { c.routes = r }
}

func New(client identity.Client, flows *store.FlowStore, tracker *pending.Tracker, opts ...Option) *Controller {
	c := &Controller{
		client:  client,
		flows:   flows,
		pending: tracker,
		routes:  DefaultRoutes(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// activate binds a completed attempt's session. The caller emits the redirect
// only when this succeeds.
func (c *Controller) activate(ctx context.Context, flow models.Flow, result identity.AttemptResult) (*identity.SessionToken, error) {
	token, err := c.client.ActivateSession(ctx, result.SessionID)
	if err != nil {
		c.logger.WarnContext(ctx, "session activation failed",
			"flow", flow,
			"error", err,
		)
		return nil, err
	}
	return &token, nil
}
