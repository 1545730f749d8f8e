package httpclient

import (
	"time"

	"dashgate/internal/identity"
	id "dashgate/pkg/domain"
)

type errorBody struct {
	Errors  []identity.ErrorDetail `json:"errors"`
	TraceID string                 `json:"trace_id"`
}

type attemptBody struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CreatedSessionID string `json:"created_session_id"`

	FirstFactorVerification *struct {
		ExternalVerificationRedirectURL string `json:"external_verification_redirect_url"`
	} `json:"first_factor_verification,omitempty"`
}

func (b attemptBody) toResult() identity.AttemptResult {
	return identity.AttemptResult{
		AttemptID: id.AttemptID(b.ID),
		Status:    identity.Status(b.Status),
		SessionID: id.SessionID(b.CreatedSessionID),
	}
}

type emailAddressBody struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type userBody struct {
	ID                    string             `json:"id"`
	FirstName             string             `json:"first_name"`
	LastName              string             `json:"last_name"`
	Username              string             `json:"username"`
	ImageURL              string             `json:"image_url"`
	PrimaryEmailAddressID string             `json:"primary_email_address_id"`
	EmailAddresses        []emailAddressBody `json:"email_addresses"`
	PublicMetadata        struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

func (u userBody) toPrincipal() identity.Principal {
	p := identity.Principal{
		ID:        id.PrincipalID(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		ImageURL:  u.ImageURL,
		Role:      u.PublicMetadata.Role,
	}
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			p.PrimaryEmail = e.EmailAddress
			break
		}
	}
	if p.PrimaryEmail == "" && len(u.EmailAddresses) > 0 {
		p.PrimaryEmail = u.EmailAddresses[0].EmailAddress
	}
	return p
}

type activityBody struct {
	BrowserName    string `json:"browser_name"`
	BrowserVersion string `json:"browser_version"`
	DeviceType     string `json:"device_type"`
	IsMobile       bool   `json:"is_mobile"`
	City           string `json:"city"`
	Country        string `json:"country"`
	IPAddress      string `json:"ip_address"`
	UserAgent      string `json:"user_agent"`
}

// sessionBody timestamps are unix milliseconds.
type sessionBody struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Status         string        `json:"status"`
	LastActiveAt   int64         `json:"last_active_at"`
	ExpireAt       int64         `json:"expire_at"`
	LatestActivity *activityBody `json:"latest_activity"`
}

func (s sessionBody) toSession() identity.Session {
	out := identity.Session{
		ID:           id.SessionID(s.ID),
		PrincipalID:  id.PrincipalID(s.UserID),
		Status:       s.Status,
		LastActiveAt: fromMillis(s.LastActiveAt),
		ExpireAt:     fromMillis(s.ExpireAt),
	}
	if a := s.LatestActivity; a != nil {
		out.Activity = &identity.Activity{
			BrowserName:    a.BrowserName,
			BrowserVersion: a.BrowserVersion,
			DeviceType:     a.DeviceType,
			IsMobile:       a.IsMobile,
			City:           a.City,
			Country:        a.Country,
			IPAddress:      a.IPAddress,
			UserAgent:      a.UserAgent,
		}
	}
	return out
}

type tokenBody struct {
	JWT       string `json:"jwt"`
	ExpiresAt int64  `json:"expires_at"`
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
