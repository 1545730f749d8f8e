package authflow

import (
	"context"

	"dashgate/internal/authflow/models"
	"dashgate/internal/platform/privacy"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/requestcontext"
)

func (c *Controller) transition(flow models.Flow, outcome string) {
	if c.metrics != nil {
		c.metrics.IncFlowTransition(string(flow), outcome)
	}
}

// record transitions an outcome into metrics: its step, or the notice code
// when the action failed.
func (c *Controller) record(out models.Outcome) models.Outcome {
	switch {
	case out.Notice.IsError():
		c.transition(out.Flow, string(out.Notice.Code))
	case out.Redirect != "":
		c.transition(out.Flow, string(models.StepDone))
	default:
		c.transition(out.Flow, string(out.Step))
	}
	return out
}

func (c *Controller) logProviderFailure(ctx context.Context, flow models.Flow, op string, err error) {
	c.logger.WarnContext(ctx, "identity provider call failed",
		"flow", flow,
		"operation", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (c *Controller) auditSuccess(ctx context.Context, action audit.AuditEvent, ev audit.Event) {
	ev.Action = string(action)
	ev.Outcome = audit.OutcomeSuccess
	c.audit.Log(ctx, ev)
}

// auditFailure records a rejected attempt against a hashed email, since no
// principal is known yet.
func (c *Controller) auditFailure(ctx context.Context, action audit.AuditEvent, email string, code dErrors.Code) {
	c.audit.Log(ctx, audit.Event{
		Action:  string(action),
		Subject: privacy.EmailRef(email),
		Outcome: audit.OutcomeFailure,
		Reason:  string(code),
	})
}

func stateError(err error, msg string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
