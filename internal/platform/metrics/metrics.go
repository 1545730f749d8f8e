package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	FlowTransitions      *prometheus.CounterVec
	DuplicateSubmissions *prometheus.CounterVec
	ProviderLatency      *prometheus.HistogramVec
	ProviderErrors       *prometheus.CounterVec
	GuardDecisions       *prometheus.CounterVec
	SessionsRevoked      prometheus.Counter
	AccountOperations    *prometheus.CounterVec
}

// New registers all collectors on reg (the default registry when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		FlowTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashgate_flow_transitions_total",
			Help: "Auth flow submissions by flow and resulting outcome",
		}, []string{"flow", "outcome"}),
		DuplicateSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashgate_duplicate_submissions_total",
			Help: "Submissions rejected because the same action was already in flight",
		}, []string{"action"}),
		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashgate_identity_provider_latency_seconds",
			Help:    "Latency of identity provider calls by operation",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		ProviderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashgate_identity_provider_errors_total",
			Help: "Failed identity provider calls by operation and error code",
		}, []string{"operation", "code"}),
		GuardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashgate_route_guard_decisions_total",
			Help: "Route guard outcomes: skipped, public, allowed, redirected",
		}, []string{"decision"}),
		SessionsRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "dashgate_sessions_revoked_total",
			Help: "Sessions revoked through the account page",
		}),
		AccountOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashgate_account_operations_total",
			Help: "Profile and account mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) IncFlowTransition(flow, outcome string) {
	if m == nil {
		return
	}
	m.FlowTransitions.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) IncDuplicateSubmission(action string) {
	if m == nil {
		return
	}
	m.DuplicateSubmissions.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveProviderCall(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) IncProviderError(operation, code string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) IncGuardDecision(decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) AddSessionsRevoked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsRevoked.Add(float64(n))
}

func (m *Metrics) IncAccountOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.AccountOperations.WithLabelValues(operation, outcome).Inc()
}
