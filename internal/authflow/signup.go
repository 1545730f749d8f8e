package authflow

import (
	"context"
	"errors"

	"dashgate/internal/authflow/models"
	"dashgate/internal/identity"
	"dashgate/internal/notice"
	"dashgate/internal/platform/pending"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/requestcontext"
	"dashgate/pkg/validation"
)

const (
	msgRegisterFailed         = "Failed to register."
	msgVerificationIncomplete = "Verification incomplete. Please try again."
	msgInvalidCode            = "Invalid verification code."
	msgSignupExpired          = "Your sign-up has expired. Please register again."
	msgActivationFailed       = "Could not start your session. Please sign in."
)

// RegistrationState reports where the browser's sign-up stands.
func (c *Controller) RegistrationState(ctx context.Context, flowID id.FlowID) (models.Outcome, error) {
	if out, ok := c.alreadySignedIn(ctx, models.FlowSignUp); ok {
		return out, nil
	}
	draft, err := c.flows.LoadDraft(ctx, flowID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Outcome{Flow: models.FlowSignUp, Step: models.StepForm}, nil
	}
	if err != nil {
		return models.Outcome{}, stateError(err, "failed to load sign-up state")
	}
	return models.Outcome{Flow: models.FlowSignUp, Step: models.StepVerifying, Email: draft.Email}, nil
}

// SubmitRegistration creates the account and emails a verification code.
// Invalid input never reaches the provider.
func (c *Controller) SubmitRegistration(ctx context.Context, flowID id.FlowID, form *validation.RegistrationForm) (models.Outcome, error) {
	defer form.Clear()
	if out, ok := c.alreadySignedIn(ctx, models.FlowSignUp); ok {
		return out, nil
	}

	form.Sanitize()
	form.Normalize()
	if err := form.Validate(); err != nil {
		return c.record(invalid(models.FlowSignUp, models.StepForm, "", err)), nil
	}

	release, err := c.pending.Acquire(ctx, pending.FlowKey("sign_up", flowID))
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	attempt, err := c.client.CreateAccount(ctx, identity.NewAccount{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		c.logProviderFailure(ctx, models.FlowSignUp, "create_account", err)
		return c.record(c.signupRejected(ctx, form.Email, err)), nil
	}

	if err := c.client.SendVerificationCode(ctx, attempt.AttemptID, form.Email); err != nil {
		c.logProviderFailure(ctx, models.FlowSignUp, "send_verification_code", err)
		return c.record(c.signupRejected(ctx, form.Email, err)), nil
	}

	draft := models.SignupDraft{Email: form.Email, AttemptID: attempt.AttemptID}
	if err := c.flows.SaveDraft(ctx, flowID, draft); err != nil {
		return models.Outcome{}, stateError(err, "failed to save sign-up state")
	}

	return c.record(models.Outcome{Flow: models.FlowSignUp, Step: models.StepVerifying, Email: form.Email}), nil
}

func (c *Controller) signupRejected(ctx context.Context, email string, err error) models.Outcome {
	n := notice.FromProvider(err, msgRegisterFailed, false)
	c.auditFailure(ctx, audit.EventSignUpCompleted, email, n.Code)
	return models.Outcome{Flow: models.FlowSignUp, Step: models.StepForm, Notice: n}
}

// SubmitVerification confirms the emailed code and, once the provider reports
// the sign-up complete, activates the new session.
func (c *Controller) SubmitVerification(ctx context.Context, flowID id.FlowID, form *validation.VerificationForm) (models.Outcome, error) {
	defer form.Clear()

	draft, err := c.flows.LoadDraft(ctx, flowID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return c.record(models.Outcome{
			Flow:   models.FlowSignUp,
			Step:   models.StepForm,
			Notice: notice.Error(dErrors.CodeIncompleteFlow, msgSignupExpired),
		}), nil
	}
	if err != nil {
		return models.Outcome{}, stateError(err, "failed to load sign-up state")
	}

	verifying := models.Outcome{Flow: models.FlowSignUp, Step: models.StepVerifying, Email: draft.Email}

	form.Sanitize()
	if err := form.Validate(); err != nil {
		return c.record(invalid(models.FlowSignUp, models.StepVerifying, draft.Email, err)), nil
	}

	release, err := c.pending.Acquire(ctx, pending.FlowKey("verify", flowID))
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	result, err := c.client.ConfirmVerification(ctx, draft.AttemptID, form.Code)
	if err != nil {
		c.logProviderFailure(ctx, models.FlowSignUp, "confirm_verification", err)
		verifying.Notice = notice.Generic(err, msgInvalidCode)
		return c.record(verifying), nil
	}
	if !result.IsComplete() {
		c.logger.InfoContext(ctx, "verification not complete",
			"status", result.Status,
			"request_id", requestcontext.RequestID(ctx),
		)
		verifying.Notice = notice.Error(dErrors.CodeIncompleteFlow, msgVerificationIncomplete)
		return c.record(verifying), nil
	}

	token, err := c.activate(ctx, models.FlowSignUp, result)
	if err != nil {
		verifying.Notice = notice.Error(dErrors.CodeProviderRejected, msgActivationFailed)
		return c.record(verifying), nil
	}

	if err := c.flows.DeleteDraft(ctx, flowID); err != nil {
		// The draft expires on its own; the account already exists.
		c.logger.WarnContext(ctx, "failed to delete sign-up draft", "error", err)
	}
	c.auditSuccess(ctx, audit.EventSignUpCompleted, audit.Event{SessionID: result.SessionID})

	return c.record(models.Outcome{
		Flow:     models.FlowSignUp,
		Step:     models.StepDone,
		Redirect: c.routes.Dashboard,
		Session:  token,
	}), nil
}

// DiscardSignup drops the browser's pending sign-up, as when the user leaves
// the verification screen.
func (c *Controller) DiscardSignup(ctx context.Context, flowID id.FlowID) error {
	if err := c.flows.DeleteDraft(ctx, flowID); err != nil {
		return stateError(err, "failed to discard sign-up state")
	}
	return nil
}

func invalid(flow models.Flow, step models.Step, email string, err error) models.Outcome {
	return models.Outcome{
		Flow:        flow,
		Step:        step,
		Email:       email,
		FieldErrors: dErrors.FieldsOf(err),
		Notice:      notice.Error(dErrors.CodeValidation, messageOf(err)),
	}
}

func messageOf(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// alreadySignedIn sends callers with a live session home instead of into a flow.
func (c *Controller) alreadySignedIn(ctx context.Context, flow models.Flow) (models.Outcome, bool) {
	if _, ok := requestcontext.SessionFrom(ctx); !ok {
		return models.Outcome{}, false
	}
	return models.Outcome{Flow: flow, Step: models.StepDone, Redirect: c.routes.Home}, true
}
