package authflow

import (
	"context"

	"dashgate/internal/authflow/models"
	"dashgate/internal/identity"
	"dashgate/internal/notice"
	"dashgate/internal/platform/pending"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/requestcontext"
	"dashgate/pkg/validation"
)

const (
	msgResetSendFailed   = "Failed to send reset code."
	msgResetFailed       = "Failed to reset password."
	msgResetIncomplete   = "Password reset incomplete. Please try again."
	msgSecondFactorUnmet = "2FA is required, but this UI does not handle that."
)

// ResetState reports the browser's current reset step.
func (c *Controller) ResetState(ctx context.Context, flowID id.FlowID) (models.Outcome, error) {
	if out, ok := c.alreadySignedIn(ctx, models.FlowReset); ok {
		return out, nil
	}
	state, err := c.flows.LoadReset(ctx, flowID)
	if err != nil {
		return models.Outcome{}, stateError(err, "failed to load reset state")
	}
	return resetView(state), nil
}

// SubmitResetEmail sends the reset code and advances to the code step. Only
// valid from StepAwaitingEmail; any other step is re-rendered unchanged.
func (c *Controller) SubmitResetEmail(ctx context.Context, flowID id.FlowID, form *validation.ResetEmailForm) (models.Outcome, error) {
	if out, ok := c.alreadySignedIn(ctx, models.FlowReset); ok {
		return out, nil
	}
	state, err := c.flows.LoadReset(ctx, flowID)
	if err != nil {
		return models.Outcome{}, stateError(err, "failed to load reset state")
	}
	if state.Step != models.StepAwaitingEmail {
		return resetView(state), nil
	}

	form.Sanitize()
	if err := form.Validate(); err != nil {
		return c.record(invalid(models.FlowReset, models.StepAwaitingEmail, "", err)), nil
	}

	release, err := c.pending.Acquire(ctx, pending.FlowKey("reset", flowID))
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	attempt, err := c.client.SendResetCode(ctx, form.Email)
	if err != nil {
		c.logProviderFailure(ctx, models.FlowReset, "send_reset_code", err)
		out := resetView(state)
		out.Notice = notice.FromProvider(err, msgResetSendFailed, true)
		return c.record(out), nil
	}

	next := models.AwaitingCodeAndPassword(form.Email, attempt.AttemptID)
	if err := c.flows.SaveReset(ctx, flowID, next); err != nil {
		return models.Outcome{}, stateError(err, "failed to save reset state")
	}
	return c.record(resetView(next)), nil
}

// SubmitResetPassword submits the code and new password. A completed reset
// activates the session before redirecting to sign-in; a second factor
// requirement holds the step, since this service does not drive 2FA.
func (c *Controller) SubmitResetPassword(ctx context.Context, flowID id.FlowID, form *validation.ResetPasswordForm) (models.Outcome, error) {
	defer form.Clear()
	if out, ok := c.alreadySignedIn(ctx, models.FlowReset); ok {
		return out, nil
	}
	state, err := c.flows.LoadReset(ctx, flowID)
	if err != nil {
		return models.Outcome{}, stateError(err, "failed to load reset state")
	}
	if state.Step != models.StepAwaitingCodeAndPassword {
		return resetView(state), nil
	}

	hold := resetView(state)

	form.Sanitize()
	if err := form.Validate(); err != nil {
		return c.record(invalid(models.FlowReset, state.Step, state.Email, err)), nil
	}

	release, err := c.pending.Acquire(ctx, pending.FlowKey("reset", flowID))
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	result, err := c.client.AttemptReset(ctx, state.AttemptID, form.Code, form.Password)
	if err != nil {
		c.logProviderFailure(ctx, models.FlowReset, "attempt_reset", err)
		hold.Notice = notice.FromProvider(err, msgResetFailed, true)
		c.auditFailure(ctx, audit.EventPasswordReset, state.Email, hold.Notice.Code)
		return c.record(hold), nil
	}

	switch {
	case result.Status == identity.StatusNeedsSecondFactor:
		hold.Notice = notice.Error(dErrors.CodeUnsupported, msgSecondFactorUnmet)
		return c.record(hold), nil
	case result.IsComplete():
	default:
		c.logger.InfoContext(ctx, "password reset not complete",
			"status", result.Status,
			"request_id", requestcontext.RequestID(ctx),
		)
		hold.Notice = notice.Error(dErrors.CodeIncompleteFlow, msgResetIncomplete)
		return c.record(hold), nil
	}

	token, err := c.activate(ctx, models.FlowReset, result)
	if err != nil {
		hold.Notice = notice.Error(dErrors.CodeProviderRejected, msgActivationFailed)
		return c.record(hold), nil
	}
	if err := c.flows.DeleteReset(ctx, flowID); err != nil {
		c.logger.WarnContext(ctx, "failed to delete reset state", "error", err)
	}
	c.auditSuccess(ctx, audit.EventPasswordReset, audit.Event{SessionID: result.SessionID})

	return c.record(models.Outcome{
		Flow:     models.FlowReset,
		Step:     models.StepDone,
		Redirect: c.routes.SignIn,
		Session:  token,
	}), nil
}

func resetView(state models.ResetState) models.Outcome {
	return models.Outcome{Flow: models.FlowReset, Step: state.Step, Email: state.Email}
}
