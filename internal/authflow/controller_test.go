package authflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dashgate/internal/authflow/models"
	"dashgate/internal/authflow/store"
	"dashgate/internal/identity"
	"dashgate/internal/identity/mocks"
	"dashgate/internal/platform/kvstore"
	"dashgate/internal/platform/metrics"
	"dashgate/internal/platform/pending"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/platform/audit/store/memory"
	"dashgate/pkg/requestcontext"
	"dashgate/pkg/validation"
)

type ControllerSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	client     *mocks.MockClient
	flows      *store.FlowStore
	tracker    *pending.Tracker
	metrics    *metrics.Metrics
	auditStore *memory.InMemoryStore
	controller *Controller
	ctx        context.Context
	flowID     id.FlowID
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockClient(s.ctrl)
	kv := kvstore.NewMemory()
	s.flows = store.New(kv, 15*time.Minute)
	s.tracker = pending.New(kv)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.auditStore = memory.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.controller = New(s.client, s.flows, s.tracker,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithAudit(audit.NewLogger(logger, auditEmitter{s.auditStore})),
	)
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-1")
	s.flowID = id.NewFlowID()
}

type auditEmitter struct{ store *memory.InMemoryStore }

func (a auditEmitter) Emit(ctx context.Context, e audit.Event) error { return a.store.Append(ctx, e) }

func rejection(msg, long string) error {
	return &identity.APIError{
		Status: http.StatusUnprocessableEntity,
		Errors: []identity.ErrorDetail{{Code: "form_param_invalid", Message: msg, LongMessage: long}},
	}
}

func outage() error {
	return identity.NewUnavailable(identity.CodeUnavailable, errors.New("connection refused"))
}

func joDo() *validation.RegistrationForm {
	return &validation.RegistrationForm{FirstName: "Jo", LastName: "Do", Email: "jo@x.com", Password: "Abcdef12"}
}

var (
	attemptID = id.AttemptID("sua_1")
	sessionID = id.SessionID("sess_1")
	token     = identity.SessionToken{Token: "header.payload.sig", ExpiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
)

func (s *ControllerSuite) transitions(flow models.Flow, outcome string) float64 {
	return promtestutil.ToFloat64(s.metrics.FlowTransitions.WithLabelValues(string(flow), outcome))
}

// --- registration ---

func (s *ControllerSuite) TestSignUpEndToEnd() {
	gomock.InOrder(
		s.client.EXPECT().CreateAccount(gomock.Any(), identity.NewAccount{
			FirstName: "Jo", LastName: "Do", Email: "jo@x.com", Password: "Abcdef12",
		}).Return(identity.AttemptResult{AttemptID: attemptID, Status: identity.StatusMissingRequirements}, nil).Times(1),
		s.client.EXPECT().SendVerificationCode(gomock.Any(), attemptID, "jo@x.com").Return(nil).Times(1),
	)

	form := joDo()
	out, err := s.controller.SubmitRegistration(s.ctx, s.flowID, form)
	s.Require().NoError(err)
	s.Equal(models.StepVerifying, out.Step)
	s.Equal("jo@x.com", out.Email)
	s.Nil(out.Notice)
	s.Empty(form.Password, "password is dropped once submitted")

	state, err := s.controller.RegistrationState(s.ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal(models.StepVerifying, state.Step)

	gomock.InOrder(
		s.client.EXPECT().ConfirmVerification(gomock.Any(), attemptID, "123456").
			Return(identity.AttemptResult{AttemptID: attemptID, Status: identity.StatusComplete, SessionID: sessionID}, nil),
		s.client.EXPECT().ActivateSession(gomock.Any(), sessionID).Return(token, nil),
	)

	out, err = s.controller.SubmitVerification(s.ctx, s.flowID, &validation.VerificationForm{Code: "123456"})
	s.Require().NoError(err)
	s.Equal("/admin/dashboard", out.Redirect)
	s.Require().NotNil(out.Session)
	s.Equal(token.Token, out.Session.Token)

	state, err = s.controller.RegistrationState(s.ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal(models.StepForm, state.Step, "draft is removed after verification")

	events, err := s.auditStore.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventSignUpCompleted), events[0].Action)
	s.Equal(sessionID, events[0].SessionID)

	s.Equal(1.0, s.transitions(models.FlowSignUp, string(models.StepVerifying)))
	s.Equal(1.0, s.transitions(models.FlowSignUp, string(models.StepDone)))
}

func (s *ControllerSuite) TestRegistrationPasswordPolicyNeverCallsProvider() {
	for _, password := range []string{"abcdef12", "ABCDEF12", "Abcdefgh", "Abc12", ""} {
		form := joDo()
		form.Password = password
		out, err := s.controller.SubmitRegistration(s.ctx, s.flowID, form)
		s.Require().NoError(err)
		s.Equal(models.StepForm, out.Step, password)
		s.Contains(out.FieldErrors, "password", password)
		s.Equal(dErrors.CodeValidation, out.Notice.Code)
	}
}

func (s *ControllerSuite) TestRegistrationReportsEveryInvalidField() {
	out, err := s.controller.SubmitRegistration(s.ctx, s.flowID, &validation.RegistrationForm{
		FirstName: "J", LastName: "D", Email: "nope", Password: "short",
	})
	s.Require().NoError(err)
	s.Len(out.FieldErrors, 4)
	s.Equal("First Name must be at least 2 characters", out.Notice.Message)
}

func (s *ControllerSuite) TestRegistrationLowerCasesEmail() {
	s.client.EXPECT().CreateAccount(gomock.Any(), identity.NewAccount{
		FirstName: "Jo", LastName: "Do", Email: "jo@x.com", Password: "Abcdef12",
	}).Return(identity.AttemptResult{AttemptID: attemptID}, nil)
	s.client.EXPECT().SendVerificationCode(gomock.Any(), attemptID, "jo@x.com").Return(nil)

	form := joDo()
	form.Email = "  Jo@X.com "
	out, err := s.controller.SubmitRegistration(s.ctx, s.flowID, form)
	s.Require().NoError(err)
	s.Equal("jo@x.com", out.Email)
}

func (s *ControllerSuite) TestRegistrationRejectedStaysOnForm() {
	s.client.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
		Return(identity.AttemptResult{}, rejection("That email address is taken. Please try another.", ""))

	out, err := s.controller.SubmitRegistration(s.ctx, s.flowID, joDo())
	s.Require().NoError(err)
	s.Equal(models.StepForm, out.Step)
	s.Equal(dErrors.CodeProviderRejected, out.Notice.Code)
	s.Equal("That email address is taken. Please try another.", out.Notice.Message)

	events, err := s.auditStore.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.OutcomeFailure, events[0].Outcome)
	s.NotContains(events[0].Subject, "jo@", "emails are hashed in audit records")
}

func (s *ControllerSuite) TestRegistrationSendCodeFailureUsesFallback() {
	s.client.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(identity.AttemptResult{AttemptID: attemptID}, nil)
	s.client.EXPECT().SendVerificationCode(gomock.Any(), attemptID, "jo@x.com").Return(outage())

	out, err := s.controller.SubmitRegistration(s.ctx, s.flowID, joDo())
	s.Require().NoError(err)
	s.Equal(models.StepForm, out.Step)
	s.Equal(dErrors.CodeProviderUnavailable, out.Notice.Code)
	s.Equal("Failed to register.", out.Notice.Message)

	state, err := s.controller.RegistrationState(s.ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal(models.StepForm, state.Step)
}

func (s *ControllerSuite) saveDraft() {
	s.Require().NoError(s.flows.SaveDraft(s.ctx, s.flowID, models.SignupDraft{Email: "jo@x.com", AttemptID: attemptID}))
}

func (s *ControllerSuite) TestVerificationIncompleteStatusHolds() {
	s.saveDraft()
	s.client.EXPECT().ConfirmVerification(gomock.Any(), attemptID, "123456").
		Return(identity.AttemptResult{AttemptID: attemptID, Status: identity.StatusMissingRequirements}, nil)

	out, err := s.controller.SubmitVerification(s.ctx, s.flowID, &validation.VerificationForm{Code: "123456"})
	s.Require().NoError(err)
	s.Equal(models.StepVerifying, out.Step)
	s.Equal("jo@x.com", out.Email)
	s.Equal(dErrors.CodeIncompleteFlow, out.Notice.Code)
	s.Equal("Verification incomplete. Please try again.", out.Notice.Message)
	s.Empty(out.Redirect)
}

func (s *ControllerSuite) TestVerificationRejectedCode() {
	s.saveDraft()
	s.client.EXPECT().ConfirmVerification(gomock.Any(), attemptID, "000000").
		Return(identity.AttemptResult{}, rejection("Incorrect code", ""))

	out, err := s.controller.SubmitVerification(s.ctx, s.flowID, &validation.VerificationForm{Code: "000000"})
	s.Require().NoError(err)
	s.Equal(models.StepVerifying, out.Step)
	s.Equal("Invalid verification code.", out.Notice.Message)
}

func (s *ControllerSuite) TestVerificationCodeLength() {
	s.saveDraft()
	out, err := s.controller.SubmitVerification(s.ctx, s.flowID, &validation.VerificationForm{Code: "123"})
	s.Require().NoError(err)
	s.Equal("Verification code must be 6 digits", out.FieldErrors["code"])
}

func (s *ControllerSuite) TestVerificationWithoutDraft() {
	out, err := s.controller.SubmitVerification(s.ctx, s.flowID, &validation.VerificationForm{Code: "123456"})
	s.Require().NoError(err)
	s.Equal(models.StepForm, out.Step)
	s.Equal(dErrors.CodeIncompleteFlow, out.Notice.Code)
}

func (s *ControllerSuite) TestVerificationActivationFailureEmitsNoRedirect() {
	s.saveDraft()
	s.client.EXPECT().ConfirmVerification(gomock.Any(), attemptID, "123456").
		Return(identity.AttemptResult{Status: identity.StatusComplete, SessionID: sessionID}, nil)
	s.client.EXPECT().ActivateSession(gomock.Any(), sessionID).Return(identity.SessionToken{}, outage())

	out, err := s.controller.SubmitVerification(s.ctx, s.flowID, &validation.VerificationForm{Code: "123456"})
	s.Require().NoError(err)
	s.Empty(out.Redirect)
	s.Nil(out.Session)
	s.Equal(dErrors.CodeProviderRejected, out.Notice.Code)
}

func (s *ControllerSuite) TestDiscardSignup() {
	s.saveDraft()
	s.Require().NoError(s.controller.DiscardSignup(s.ctx, s.flowID))

	state, err := s.controller.RegistrationState(s.ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal(models.StepForm, state.Step)
}

// --- sign-in ---

func (s *ControllerSuite) TestSignInComplete() {
	gomock.InOrder(
		s.client.EXPECT().CreateSession(gomock.Any(), "jo@x.com", "Abcdef12").
			Return(identity.AttemptResult{Status: identity.StatusComplete, SessionID: sessionID}, nil),
		s.client.EXPECT().ActivateSession(gomock.Any(), sessionID).Return(token, nil),
	)

	form := &validation.LoginForm{Email: "jo@x.com", Password: "Abcdef12"}
	out, err := s.controller.SubmitSignIn(s.ctx, s.flowID, form)
	s.Require().NoError(err)
	s.Equal("/admin/dashboard", out.Redirect)
	s.Require().NotNil(out.Session)
	s.Empty(form.Password)
}

func (s *ControllerSuite) TestSignInIncomplete() {
	s.client.EXPECT().CreateSession(gomock.Any(), "jo@x.com", "Abcdef12").
		Return(identity.AttemptResult{Status: identity.StatusNeedsSecondFactor}, nil)

	out, err := s.controller.SubmitSignIn(s.ctx, s.flowID, &validation.LoginForm{Email: "jo@x.com", Password: "Abcdef12"})
	s.Require().NoError(err)
	s.Empty(out.Redirect)
	s.Equal("Sign in incomplete. Try again.", out.Notice.Message)
}

func (s *ControllerSuite) TestSignInRejectionMessageVerbatim() {
	s.client.EXPECT().CreateSession(gomock.Any(), "jo@x.com", "wrong").
		Return(identity.AttemptResult{}, rejection("Password is incorrect. Try again, or use another method.", "long"))

	out, err := s.controller.SubmitSignIn(s.ctx, s.flowID, &validation.LoginForm{Email: "jo@x.com", Password: "wrong"})
	s.Require().NoError(err)
	s.Equal("Password is incorrect. Try again, or use another method.", out.Notice.Message)
}

func (s *ControllerSuite) TestSignInOutageFallback() {
	s.client.EXPECT().CreateSession(gomock.Any(), gomock.Any(), gomock.Any()).Return(identity.AttemptResult{}, outage())

	out, err := s.controller.SubmitSignIn(s.ctx, s.flowID, &validation.LoginForm{Email: "jo@x.com", Password: "x"})
	s.Require().NoError(err)
	s.Equal("Failed to sign in.", out.Notice.Message)
	s.Equal(dErrors.CodeProviderUnavailable, out.Notice.Code)
}

func (s *ControllerSuite) TestSignInInvalidEmail() {
	out, err := s.controller.SubmitSignIn(s.ctx, s.flowID, &validation.LoginForm{Email: "", Password: "x"})
	s.Require().NoError(err)
	s.Equal("Invalid email address", out.FieldErrors["email"])
}

func (s *ControllerSuite) TestDuplicateSubmissionRejected() {
	release, err := s.tracker.Acquire(s.ctx, pending.FlowKey("sign_in", s.flowID))
	s.Require().NoError(err)
	defer release()

	_, err = s.controller.SubmitSignIn(s.ctx, s.flowID, &validation.LoginForm{Email: "jo@x.com", Password: "Abcdef12"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.ErrorIs(err, sentinel.ErrInFlight)
}

func (s *ControllerSuite) TestPendingKeyReleasedAfterFailure() {
	s.client.EXPECT().CreateSession(gomock.Any(), gomock.Any(), gomock.Any()).Return(identity.AttemptResult{}, outage()).Times(2)

	for range 2 {
		_, err := s.controller.SubmitSignIn(s.ctx, s.flowID, &validation.LoginForm{Email: "jo@x.com", Password: "x"})
		s.Require().NoError(err)
	}
}

func (s *ControllerSuite) TestSignedInCallersGoHome() {
	ctx := requestcontext.WithSession(s.ctx, requestcontext.Session{PrincipalID: "user_1", SessionID: sessionID})

	out, err := s.controller.SubmitSignIn(ctx, s.flowID, &validation.LoginForm{Email: "jo@x.com", Password: "x"})
	s.Require().NoError(err)
	s.Equal("/", out.Redirect)

	out, err = s.controller.ResetState(ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal("/", out.Redirect)
}

// --- federated ---

func (s *ControllerSuite) TestBeginFederated() {
	s.client.EXPECT().BeginFederatedLogin(gomock.Any(), "oauth_google", "/sso-callback", "/dashboard").
		Return(identity.FederatedRedirect{AttemptID: attemptID, RedirectURL: "https://accounts.google.com/o/oauth2"}, nil)

	out, err := s.controller.BeginFederated(s.ctx, "oauth_google")
	s.Require().NoError(err)
	s.Equal("https://accounts.google.com/o/oauth2", out.Redirect)
}

func (s *ControllerSuite) TestBeginFederatedUnknownProvider() {
	out, err := s.controller.BeginFederated(s.ctx, "oauth_myspace")
	s.Require().NoError(err)
	s.Empty(out.Redirect)
	s.Equal(dErrors.CodeValidation, out.Notice.Code)
}

func (s *ControllerSuite) TestBeginFederatedFailureIsSilent() {
	s.client.EXPECT().BeginFederatedLogin(gomock.Any(), "oauth_github", gomock.Any(), gomock.Any()).
		Return(identity.FederatedRedirect{}, outage())

	out, err := s.controller.BeginFederated(s.ctx, "oauth_github")
	s.Require().NoError(err)
	s.Empty(out.Redirect)
	s.Nil(out.Notice)
}

// --- password reset ---

func (s *ControllerSuite) TestResetInvalidEmailNeverAdvances() {
	out, err := s.controller.SubmitResetEmail(s.ctx, s.flowID, &validation.ResetEmailForm{Email: "not-an-email"})
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingEmail, out.Step)
	s.Equal("Enter a valid email", out.FieldErrors["email"])

	state, err := s.flows.LoadReset(s.ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingEmail, state.Step)
}

func (s *ControllerSuite) TestResetEmailAdvances() {
	s.client.EXPECT().SendResetCode(gomock.Any(), "jo@x.com").
		Return(identity.AttemptResult{AttemptID: "sia_1", Status: identity.StatusNeedsFirstFactor}, nil)

	out, err := s.controller.SubmitResetEmail(s.ctx, s.flowID, &validation.ResetEmailForm{Email: "jo@x.com"})
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingCodeAndPassword, out.Step)
	s.Equal("jo@x.com", out.Email)

	state, err := s.controller.ResetState(s.ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingCodeAndPassword, state.Step)
}

func (s *ControllerSuite) TestResetEmailFailurePrefersLongMessage() {
	s.client.EXPECT().SendResetCode(gomock.Any(), "jo@x.com").
		Return(identity.AttemptResult{}, rejection("Couldn't find your account.", "No account exists for this email address."))

	out, err := s.controller.SubmitResetEmail(s.ctx, s.flowID, &validation.ResetEmailForm{Email: "jo@x.com"})
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingEmail, out.Step)
	s.Equal("No account exists for this email address.", out.Notice.Message)
}

func (s *ControllerSuite) awaitingCode() {
	s.Require().NoError(s.flows.SaveReset(s.ctx, s.flowID, models.AwaitingCodeAndPassword("jo@x.com", "sia_1")))
}

func (s *ControllerSuite) TestResetCompleteActivatesThenRedirectsToSignIn() {
	s.awaitingCode()
	gomock.InOrder(
		s.client.EXPECT().AttemptReset(gomock.Any(), id.AttemptID("sia_1"), "654321", "Newpass12").
			Return(identity.AttemptResult{Status: identity.StatusComplete, SessionID: sessionID}, nil),
		s.client.EXPECT().ActivateSession(gomock.Any(), sessionID).Return(token, nil),
	)

	form := &validation.ResetPasswordForm{Code: "654321", Password: "Newpass12"}
	out, err := s.controller.SubmitResetPassword(s.ctx, s.flowID, form)
	s.Require().NoError(err)
	s.Equal("/sign-in", out.Redirect)
	s.Require().NotNil(out.Session)
	s.Empty(form.Password)
	s.Empty(form.Code)

	state, err := s.flows.LoadReset(s.ctx, s.flowID)
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingEmail, state.Step)
}

func (s *ControllerSuite) TestResetSecondFactorHolds() {
	s.awaitingCode()
	s.client.EXPECT().AttemptReset(gomock.Any(), id.AttemptID("sia_1"), "654321", "Newpass12").
		Return(identity.AttemptResult{Status: identity.StatusNeedsSecondFactor}, nil)

	out, err := s.controller.SubmitResetPassword(s.ctx, s.flowID, &validation.ResetPasswordForm{Code: "654321", Password: "Newpass12"})
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingCodeAndPassword, out.Step)
	s.Equal(dErrors.CodeUnsupported, out.Notice.Code)
	s.Equal("2FA is required, but this UI does not handle that.", out.Notice.Message)
}

func (s *ControllerSuite) TestResetOtherStatusSurfacesError() {
	s.awaitingCode()
	s.client.EXPECT().AttemptReset(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(identity.AttemptResult{Status: "abandoned"}, nil)

	out, err := s.controller.SubmitResetPassword(s.ctx, s.flowID, &validation.ResetPasswordForm{Code: "654321", Password: "Newpass12"})
	s.Require().NoError(err)
	s.Equal(dErrors.CodeIncompleteFlow, out.Notice.Code)
	s.Equal("Password reset incomplete. Please try again.", out.Notice.Message)
}

func (s *ControllerSuite) TestResetRejectedCode() {
	s.awaitingCode()
	s.client.EXPECT().AttemptReset(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(identity.AttemptResult{}, rejection("Incorrect code", ""))

	out, err := s.controller.SubmitResetPassword(s.ctx, s.flowID, &validation.ResetPasswordForm{Code: "000000", Password: "Newpass12"})
	s.Require().NoError(err)
	s.Equal("Incorrect code", out.Notice.Message)
	s.Equal(models.StepAwaitingCodeAndPassword, out.Step)
}

func (s *ControllerSuite) TestResetWrongStepRerenders() {
	out, err := s.controller.SubmitResetPassword(s.ctx, s.flowID, &validation.ResetPasswordForm{Code: "1", Password: "x"})
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingEmail, out.Step)
	s.Nil(out.Notice)

	s.awaitingCode()
	out, err = s.controller.SubmitResetEmail(s.ctx, s.flowID, &validation.ResetEmailForm{Email: "other@x.com"})
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingCodeAndPassword, out.Step)
	s.Equal("jo@x.com", out.Email)
}
