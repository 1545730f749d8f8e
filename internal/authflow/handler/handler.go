package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dashgate/internal/authflow/models"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/httputil"
	"dashgate/pkg/requestcontext"
	"dashgate/pkg/validation"
)

// Service defines the auth flow operations behind the /auth routes.
type Service interface {
	RegistrationState(ctx context.Context, flowID id.FlowID) (models.Outcome, error)
	SubmitRegistration(ctx context.Context, flowID id.FlowID, form *validation.RegistrationForm) (models.Outcome, error)
	SubmitVerification(ctx context.Context, flowID id.FlowID, form *validation.VerificationForm) (models.Outcome, error)
	DiscardSignup(ctx context.Context, flowID id.FlowID) error
	SignInState(ctx context.Context) models.Outcome
	SubmitSignIn(ctx context.Context, flowID id.FlowID, form *validation.LoginForm) (models.Outcome, error)
	BeginFederated(ctx context.Context, providerID string) (models.Outcome, error)
	ResetState(ctx context.Context, flowID id.FlowID) (models.Outcome, error)
	SubmitResetEmail(ctx context.Context, flowID id.FlowID, form *validation.ResetEmailForm) (models.Outcome, error)
	SubmitResetPassword(ctx context.Context, flowID id.FlowID, form *validation.ResetPasswordForm) (models.Outcome, error)
}

// Handler serves the sign-up, sign-in, reset, and federated endpoints.
// Form validation happens in the service so field errors come back as part
// of the outcome rather than as a bare 400.
type Handler struct {
	flows   Service
	cookies httputil.Cookies
	logger  *slog.Logger
}

func New(flows Service, cookies httputil.Cookies, logger *slog.Logger) *Handler {
	return &Handler{flows: flows, cookies: cookies, logger: logger}
}

// Register registers the auth flow routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/sign-up", h.HandleRegistrationState)
		r.Post("/sign-up", h.HandleRegister)
		r.Delete("/sign-up", h.HandleDiscardSignup)
		r.Post("/sign-up/verify", h.HandleVerify)

		r.Get("/sign-in", h.HandleSignInState)
		r.Post("/sign-in", h.HandleSignIn)
		r.Post("/sign-in/federated", h.HandleFederated)

		r.Get("/reset-password", h.HandleResetState)
		r.Post("/reset-password/code", h.HandleResetEmail)
		r.Post("/reset-password", h.HandleResetPassword)
	})
}

type federatedRequest struct {
	Provider string `json:"provider"`
}

func (r *federatedRequest) Sanitize() { r.Provider = strings.TrimSpace(r.Provider) }

func (r *federatedRequest) Validate() error {
	if r.Provider == "" {
		return dErrors.NewValidation(map[string]string{"provider": "Provider is required"}, "provider")
	}
	return nil
}

func (h *Handler) HandleRegistrationState(w http.ResponseWriter, r *http.Request) {
	out, err := h.flows.RegistrationState(r.Context(), h.cookies.FlowID(w, r))
	h.respond(w, r, "registration state", out, err)
}

// HandleRegister implements POST /auth/sign-up.
//
// Input: { "first_name": "Jo", "last_name": "Do", "email": "jo@x.com", "password": "..." }
// Output: { "flow": "sign_up", "step": "verifying", "email": "jo@x.com" }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, ok := httputil.DecodeJSON[validation.RegistrationForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.flows.SubmitRegistration(ctx, h.cookies.FlowID(w, r), form)
	h.respond(w, r, "registration", out, err)
}

// HandleVerify implements POST /auth/sign-up/verify with { "code": "123456" }.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, ok := httputil.DecodeJSON[validation.VerificationForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.flows.SubmitVerification(ctx, h.cookies.FlowID(w, r), form)
	h.respond(w, r, "verification", out, err)
}

// HandleDiscardSignup implements DELETE /auth/sign-up, sent when the user
// leaves the verification screen.
func (h *Handler) HandleDiscardSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.flows.DiscardSignup(ctx, h.cookies.FlowID(w, r)); err != nil {
		h.logger.ErrorContext(ctx, "failed to discard sign-up",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSignInState(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "sign-in state", h.flows.SignInState(r.Context()), nil)
}

// HandleSignIn implements POST /auth/sign-in.
//
// Input: { "email": "jo@x.com", "password": "..." }
// Output: { "flow": "sign_in", "step": "done", "redirect": "/admin/dashboard" } plus the session cookie.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, ok := httputil.DecodeJSON[validation.LoginForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.flows.SubmitSignIn(ctx, h.cookies.FlowID(w, r), form)
	h.respond(w, r, "sign-in", out, err)
}

// HandleFederated implements POST /auth/sign-in/federated with { "provider": "oauth_google" }.
func (h *Handler) HandleFederated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[federatedRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.flows.BeginFederated(ctx, req.Provider)
	h.respond(w, r, "federated sign-in", out, err)
}

func (h *Handler) HandleResetState(w http.ResponseWriter, r *http.Request) {
	out, err := h.flows.ResetState(r.Context(), h.cookies.FlowID(w, r))
	h.respond(w, r, "reset state", out, err)
}

// HandleResetEmail implements POST /auth/reset-password/code with { "email": "jo@x.com" }.
func (h *Handler) HandleResetEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, ok := httputil.DecodeJSON[validation.ResetEmailForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.flows.SubmitResetEmail(ctx, h.cookies.FlowID(w, r), form)
	h.respond(w, r, "reset email", out, err)
}

// HandleResetPassword implements POST /auth/reset-password with { "code": "...", "password": "..." }.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, ok := httputil.DecodeJSON[validation.ResetPasswordForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.flows.SubmitResetPassword(ctx, h.cookies.FlowID(w, r), form)
	h.respond(w, r, "reset password", out, err)
}

// respond binds any issued session before writing the outcome. Error notices
// map to their domain status; everything else is 200.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, action string, out models.Outcome, err error) {
	ctx := r.Context()
	if err != nil {
		h.logger.ErrorContext(ctx, action+" failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	if out.Session != nil {
		h.cookies.SetSession(w, out.Session.Token, out.Session.ExpiresAt)
	}

	status := http.StatusOK
	if out.Notice.IsError() {
		status = httputil.DomainCodeToHTTPStatus(out.Notice.Code)
	}
	httputil.WriteJSON(w, status, out)
}
