package httputil

import (
	"net/http"
	"time"

	id "dashgate/pkg/domain"
)

// Cookies names and scopes the two cookies this service sets: the flow cookie
// that keys server-held flow state, and the provider session token.
type Cookies struct {
	FlowName    string
	FlowTTL     time.Duration
	SessionName string
	Secure      bool
}

// FlowID returns the browser's flow identifier, minting and setting a new one
// when the cookie is missing or malformed. The cookie is refreshed on every
// call so active flows do not expire mid-way.
func (c Cookies) FlowID(w http.ResponseWriter, r *http.Request) id.FlowID {
	flowID := id.NewFlowID()
	if cookie, err := r.Cookie(c.FlowName); err == nil {
		if parsed, err := id.ParseFlowID(cookie.Value); err == nil {
			flowID = parsed
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.FlowName,
		Value:    flowID.String(),
		Path:     "/",
		MaxAge:   int(c.FlowTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return flowID
}

// SetSession binds the provider session token to the browser.
func (c Cookies) SetSession(w http.ResponseWriter, token string, expiresAt time.Time) {
	cookie := &http.Cookie{
		Name:     c.SessionName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expiresAt.IsZero() {
		cookie.Expires = expiresAt
	}
	http.SetCookie(w, cookie)
}

// ClearSession removes the session cookie.
func (c Cookies) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.SessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
