package authflow

import (
	"context"
	"slices"

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
	msgSignInFailed     = "Failed to sign in."
	msgSignInIncomplete = "Sign in incomplete. Try again."
	msgUnknownProvider  = "Unsupported sign-in provider"
)

// SignInState is the empty sign-in form, or a redirect for signed-in callers.
func (c *Controller) SignInState(ctx context.Context) models.Outcome {
	if out, ok := c.alreadySignedIn(ctx, models.FlowSignIn); ok {
		return out
	}
	return models.Outcome{Flow: models.FlowSignIn, Step: models.StepForm}
}

// SubmitSignIn signs in with email and password.
func (c *Controller) SubmitSignIn(ctx context.Context, flowID id.FlowID, form *validation.LoginForm) (models.Outcome, error) {
	defer form.Clear()
	if out, ok := c.alreadySignedIn(ctx, models.FlowSignIn); ok {
		return out, nil
	}

	form.Sanitize()
	if err := form.Validate(); err != nil {
		return c.record(invalid(models.FlowSignIn, models.StepForm, "", err)), nil
	}

	release, err := c.pending.Acquire(ctx, pending.FlowKey("sign_in", flowID))
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	formState := models.Outcome{Flow: models.FlowSignIn, Step: models.StepForm}

	result, err := c.client.CreateSession(ctx, form.Email, form.Password)
	if err != nil {
		c.logProviderFailure(ctx, models.FlowSignIn, "create_session", err)
		formState.Notice = notice.FromProvider(err, msgSignInFailed, false)
		c.auditFailure(ctx, audit.EventSignIn, form.Email, formState.Notice.Code)
		return c.record(formState), nil
	}
	if !result.IsComplete() {
		c.logger.InfoContext(ctx, "sign in not complete",
			"status", result.Status,
			"request_id", requestcontext.RequestID(ctx),
		)
		formState.Notice = notice.Error(dErrors.CodeIncompleteFlow, msgSignInIncomplete)
		return c.record(formState), nil
	}

	token, err := c.activate(ctx, models.FlowSignIn, result)
	if err != nil {
		formState.Notice = notice.FromProvider(err, msgSignInFailed, false)
		return c.record(formState), nil
	}
	c.auditSuccess(ctx, audit.EventSignIn, audit.Event{SessionID: result.SessionID})

	return c.record(models.Outcome{
		Flow:     models.FlowSignIn,
		Step:     models.StepDone,
		Redirect: c.routes.Dashboard,
		Session:  token,
	}), nil
}

// BeginFederated starts an OAuth sign-in. Provider failures are logged only;
// the outcome then carries no redirect and the user may try again.
func (c *Controller) BeginFederated(ctx context.Context, providerID string) (models.Outcome, error) {
	if out, ok := c.alreadySignedIn(ctx, models.FlowFederated); ok {
		return out, nil
	}
	if !slices.Contains(identity.FederatedProviders, providerID) {
		return c.record(models.Outcome{
			Flow:        models.FlowFederated,
			Step:        models.StepForm,
			FieldErrors: validation.FieldErrors{"provider": msgUnknownProvider},
			Notice:      notice.Error(dErrors.CodeValidation, msgUnknownProvider),
		}), nil
	}

	redirect, err := c.client.BeginFederatedLogin(ctx, providerID, c.routes.FederatedCallback, c.routes.FederatedComplete)
	if err != nil {
		c.logProviderFailure(ctx, models.FlowFederated, "begin_federated_login", err)
		c.transition(models.FlowFederated, string(dErrors.CodeProviderRejected))
		return models.Outcome{Flow: models.FlowFederated, Step: models.StepForm}, nil
	}

	return c.record(models.Outcome{
		Flow:     models.FlowFederated,
		Step:     models.StepDone,
		Redirect: redirect.RedirectURL,
	}), nil
}
