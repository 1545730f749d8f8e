package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"dashgate/internal/identity"
	id "dashgate/pkg/domain"
)

const (
	strategyPassword   = "password"
	strategyEmailCode  = "email_code"
	strategyResetEmail = "reset_password_email_code"
)

func (c *Client) CreateAccount(ctx context.Context, acct identity.NewAccount) (identity.AttemptResult, error) {
	var out attemptBody
	err := c.do(ctx, call{op: "create_account", method: http.MethodPost, path: "/v1/sign_ups", body: map[string]string{
		"first_name":    acct.FirstName,
		"last_name":     acct.LastName,
		"email_address": acct.Email,
		"password":      acct.Password,
	}}, &out)
	if err != nil {
		return identity.AttemptResult{}, err
	}
	return out.toResult(), nil
}

func (c *Client) SendVerificationCode(ctx context.Context, attemptID id.AttemptID, email string) error {
	return c.do(ctx, call{
		op:     "send_verification_code",
		method: http.MethodPost,
		path:   "/v1/sign_ups/" + url.PathEscape(attemptID.String()) + "/prepare_verification",
		body:   map[string]string{"strategy": strategyEmailCode, "email_address": email},
	}, nil)
}

func (c *Client) ConfirmVerification(ctx context.Context, attemptID id.AttemptID, code string) (identity.AttemptResult, error) {
	var out attemptBody
	err := c.do(ctx, call{
		op:     "confirm_verification",
		method: http.MethodPost,
		path:   "/v1/sign_ups/" + url.PathEscape(attemptID.String()) + "/attempt_verification",
		body:   map[string]string{"strategy": strategyEmailCode, "code": code},
	}, &out)
	if err != nil {
		return identity.AttemptResult{}, err
	}
	return out.toResult(), nil
}

func (c *Client) CreateSession(ctx context.Context, identifier, secret string) (identity.AttemptResult, error) {
	var out attemptBody
	err := c.do(ctx, call{op: "create_session", method: http.MethodPost, path: "/v1/sign_ins", body: map[string]string{
		"strategy":   strategyPassword,
		"identifier": identifier,
		"password":   secret,
	}}, &out)
	if err != nil {
		return identity.AttemptResult{}, err
	}
	return out.toResult(), nil
}

func (c *Client) BeginFederatedLogin(ctx context.Context, providerID, callbackURL, completeURL string) (identity.FederatedRedirect, error) {
	var out attemptBody
	err := c.do(ctx, call{op: "begin_federated_login", method: http.MethodPost, path: "/v1/sign_ins", body: map[string]string{
		"strategy":                     providerID,
		"redirect_url":                 callbackURL,
		"action_complete_redirect_url": completeURL,
	}}, &out)
	if err != nil {
		return identity.FederatedRedirect{}, err
	}
	if out.FirstFactorVerification == nil || out.FirstFactorVerification.ExternalVerificationRedirectURL == "" {
		return identity.FederatedRedirect{}, identity.NewUnavailable(identity.CodeBadResponse,
			fmt.Errorf("federated sign-in %s returned no redirect", out.ID))
	}
	return identity.FederatedRedirect{
		AttemptID:   id.AttemptID(out.ID),
		RedirectURL: out.FirstFactorVerification.ExternalVerificationRedirectURL,
	}, nil
}

func (c *Client) SendResetCode(ctx context.Context, email string) (identity.AttemptResult, error) {
	var out attemptBody
	err := c.do(ctx, call{op: "send_reset_code", method: http.MethodPost, path: "/v1/sign_ins", body: map[string]string{
		"strategy":   strategyResetEmail,
		"identifier": email,
	}}, &out)
	if err != nil {
		return identity.AttemptResult{}, err
	}
	return out.toResult(), nil
}

func (c *Client) AttemptReset(ctx context.Context, attemptID id.AttemptID, code, newSecret string) (identity.AttemptResult, error) {
	var out attemptBody
	err := c.do(ctx, call{
		op:     "attempt_reset",
		method: http.MethodPost,
		path:   "/v1/sign_ins/" + url.PathEscape(attemptID.String()) + "/attempt_first_factor",
		body:   map[string]string{"strategy": strategyResetEmail, "code": code, "password": newSecret},
	}, &out)
	if err != nil {
		return identity.AttemptResult{}, err
	}
	return out.toResult(), nil
}

func (c *Client) ListSessions(ctx context.Context, principalID id.PrincipalID) ([]identity.Session, error) {
	var out []sessionBody
	err := c.do(ctx, call{
		op:     "list_sessions",
		method: http.MethodGet,
		path:   "/v1/users/" + url.PathEscape(principalID.String()) + "/sessions?status=active",
	}, &out)
	if err != nil {
		return nil, err
	}
	sessions := make([]identity.Session, 0, len(out))
	for _, s := range out {
		sessions = append(sessions, s.toSession())
	}
	return sessions, nil
}

func (c *Client) RevokeSession(ctx context.Context, sessionID id.SessionID) error {
	return c.do(ctx, call{
		op:     "revoke_session",
		method: http.MethodPost,
		path:   "/v1/sessions/" + url.PathEscape(sessionID.String()) + "/revoke",
	}, nil)
}

func (c *Client) ActivateSession(ctx context.Context, sessionID id.SessionID) (identity.SessionToken, error) {
	var out tokenBody
	err := c.do(ctx, call{
		op:     "activate_session",
		method: http.MethodPost,
		path:   "/v1/sessions/" + url.PathEscape(sessionID.String()) + "/tokens",
	}, &out)
	if err != nil {
		return identity.SessionToken{}, err
	}
	if out.JWT == "" {
		return identity.SessionToken{}, identity.NewUnavailable(identity.CodeBadResponse,
			fmt.Errorf("session %s token response was empty", sessionID))
	}
	return identity.SessionToken{Token: out.JWT, ExpiresAt: fromMillis(out.ExpiresAt)}, nil
}

func (c *Client) GetPrincipal(ctx context.Context, principalID id.PrincipalID) (identity.Principal, error) {
	return c.user(ctx, call{op: "get_principal", method: http.MethodGet, path: userPath(principalID)})
}

func (c *Client) UpdateProfile(ctx context.Context, principalID id.PrincipalID, update identity.ProfileUpdate) (identity.Principal, error) {
	return c.user(ctx, call{op: "update_profile", method: http.MethodPatch, path: userPath(principalID), body: map[string]string{
		"first_name": update.FirstName,
		"last_name":  update.LastName,
	}})
}

func (c *Client) SetProfileImage(ctx context.Context, principalID id.PrincipalID, img identity.Image) (identity.Principal, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, img.Filename))
	header.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return identity.Principal{}, identity.NewUnavailable(identity.CodeBadResponse, err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return identity.Principal{}, identity.NewUnavailable(identity.CodeBadResponse, err)
	}
	if err := mw.Close(); err != nil {
		return identity.Principal{}, identity.NewUnavailable(identity.CodeBadResponse, err)
	}
	return c.user(ctx, call{
		op:          "set_profile_image",
		method:      http.MethodPost,
		path:        userPath(principalID) + "/profile_image",
		raw:         buf.Bytes(),
		contentType: mw.FormDataContentType(),
	})
}

func (c *Client) UpdatePassword(ctx context.Context, principalID id.PrincipalID, current, next string) error {
	return c.do(ctx, call{op: "update_password", method: http.MethodPost, path: userPath(principalID) + "/change_password", body: map[string]string{
		"current_password": current,
		"new_password":     next,
	}}, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, principalID id.PrincipalID) error {
	return c.do(ctx, call{op: "delete_account", method: http.MethodDelete, path: userPath(principalID)}, nil)
}

func (c *Client) user(ctx context.Context, cl call) (identity.Principal, error) {
	var out userBody
	if err := c.do(ctx, cl, &out); err != nil {
		return identity.Principal{}, err
	}
	return out.toPrincipal(), nil
}

func userPath(principalID id.PrincipalID) string {
	return "/v1/users/" + url.PathEscape(principalID.String())
}
