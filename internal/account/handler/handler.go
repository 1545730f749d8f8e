package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dashgate/internal/account"
	"dashgate/internal/account/models"
	"dashgate/internal/identity"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/httputil"
	"dashgate/pkg/requestcontext"
	"dashgate/pkg/validation"
)

// Service defines the account page operations. Every method acts on the
// verified caller taken from the request context.
type Service interface {
	ListSessions(ctx context.Context, caller requestcontext.Session) (models.SessionList, error)
	RevokeSession(ctx context.Context, caller requestcontext.Session, sessionID id.SessionID) (models.RevokeResult, error)
	RevokeAll(ctx context.Context, caller requestcontext.Session, exceptCurrent bool) (models.RevokeAllResult, error)
	SignOut(ctx context.Context, caller requestcontext.Session) error
	Profile(ctx context.Context, caller requestcontext.Session) (*models.Profile, error)
	UpdateProfile(ctx context.Context, caller requestcontext.Session, form *validation.ProfileForm) (models.Outcome, error)
	UpdateAvatar(ctx context.Context, caller requestcontext.Session, img identity.Image) (models.Outcome, error)
	GetPreview(ctx context.Context, caller requestcontext.Session) (models.Preview, error)
	UpdatePassword(ctx context.Context, caller requestcontext.Session, form *validation.PasswordChangeForm) (models.Outcome, error)
	DeleteAccount(ctx context.Context, caller requestcontext.Session, form *validation.DeleteAccountForm) (models.Outcome, error)
}

// Handler serves the account page and sign-out. Authentication middleware
// must be applied by the parent router.
type Handler struct {
	account Service
	cookies httputil.Cookies
	logger  *slog.Logger
}

func New(svc Service, cookies httputil.Cookies, logger *slog.Logger) *Handler {
	return &Handler{account: svc, cookies: cookies, logger: logger}
}

// Register registers the account routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/sign-out", h.HandleSignOut)

	r.Route("/admin/account", func(r chi.Router) {
		r.Get("/", h.HandleProfile)
		r.Delete("/", h.HandleDeleteAccount)
		r.Patch("/profile", h.HandleUpdateProfile)
		r.Put("/avatar", h.HandleUpdateAvatar)
		r.Get("/avatar/preview", h.HandleAvatarPreview)
		r.Post("/password", h.HandleUpdatePassword)

		r.Get("/sessions", h.HandleListSessions)
		r.Post("/sessions/revoke-all", h.HandleRevokeAll)
		r.Delete("/sessions/{session_id}", h.HandleRevokeSession)
	})
}

type revokeAllRequest struct {
	ExceptCurrent *bool `json:"except_current"`
}

// caller resolves the verified session or writes a 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (requestcontext.Session, bool) {
	session, err := httputil.RequireSession(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return requestcontext.Session{}, false
	}
	return session, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, action+" failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}

// HandleSignOut implements POST /auth/sign-out. The session cookie is cleared
// even when the provider call fails.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	err := h.account.SignOut(r.Context(), caller)
	h.cookies.ClearSession(w)
	if err != nil {
		h.fail(w, r, "sign out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	profile, err := h.account.Profile(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "load profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// HandleUpdateProfile implements PATCH /admin/account/profile with
// { "first_name": "Jo", "last_name": "Do" }.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	form, ok := httputil.DecodeJSON[validation.ProfileForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.account.UpdateProfile(ctx, caller, form)
	h.respond(w, r, "update profile", out, err)
}

// HandleUpdateAvatar implements PUT /admin/account/avatar. The body is the raw
// image; its Content-Type header is the image type.
func (h *Handler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, account.MaxAvatarBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body too large"))
			return
		}
		h.fail(w, r, "read avatar", dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read image"))
		return
	}
	out, err := h.account.UpdateAvatar(r.Context(), caller, identity.Image{
		Filename:    r.Header.Get("X-Filename"),
		ContentType: r.Header.Get("Content-Type"),
		Data:        data,
	})
	h.respond(w, r, "update avatar", out, err)
}

// HandleAvatarPreview serves the locally held avatar while an upload is pending.
func (h *Handler) HandleAvatarPreview(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	preview, err := h.account.GetPreview(r.Context(), caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(preview.Data)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(preview.Data)
}

// HandleUpdatePassword implements POST /admin/account/password with
// { "current_password": "...", "new_password": "...", "confirm_password": "..." }.
func (h *Handler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	form, ok := httputil.DecodeJSON[validation.PasswordChangeForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.account.UpdatePassword(ctx, caller, form)
	h.respond(w, r, "update password", out, err)
}

// HandleDeleteAccount implements DELETE /admin/account with { "confirm": true }.
// An empty body counts as unconfirmed.
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	form := &validation.DeleteAccountForm{}
	if r.ContentLength != 0 {
		form, ok = httputil.DecodeJSON[validation.DeleteAccountForm](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
	}
	out, err := h.account.DeleteAccount(ctx, caller, form)
	h.respond(w, r, "delete account", out, err)
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	list, err := h.account.ListSessions(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "list sessions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// HandleRevokeSession implements DELETE /admin/account/sessions/{session_id}.
func (h *Handler) HandleRevokeSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "session_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.account.RevokeSession(r.Context(), caller, sessionID)
	if err != nil {
		h.fail(w, r, "revoke session", err)
		return
	}
	if result.SignedOut {
		h.cookies.ClearSession(w)
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleRevokeAll implements POST /admin/account/sessions/revoke-all. The
// current session is kept unless { "except_current": false } is sent.
func (h *Handler) HandleRevokeAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	exceptCurrent := true
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeJSON[revokeAllRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		if req.ExceptCurrent != nil {
			exceptCurrent = *req.ExceptCurrent
		}
	}
	result, err := h.account.RevokeAll(ctx, caller, exceptCurrent)
	if err != nil {
		h.fail(w, r, "revoke all sessions", err)
		return
	}
	if result.SignedOut {
		h.cookies.ClearSession(w)
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, action string, out models.Outcome, err error) {
	if err != nil {
		h.fail(w, r, action, err)
		return
	}
	if out.SignedOut {
		h.cookies.ClearSession(w)
	}
	status := http.StatusOK
	if out.Notice.IsError() {
		status = httputil.DomainCodeToHTTPStatus(out.Notice.Code)
	}
	httputil.WriteJSON(w, status, out)
}
