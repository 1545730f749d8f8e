package models

import (
	"time"

	"dashgate/internal/identity"
	"dashgate/internal/notice"
	id "dashgate/pkg/domain"
)

const NoSessionsText = "No active sessions."

// SessionView is one row of the account page's device list.
type SessionView struct {
	ID           id.SessionID `json:"id"`
	Device       string       `json:"device"`
	LastActiveAt time.Time    `json:"last_active_at"`
	LastActive   string       `json:"last_active"`
	IsCurrent    bool         `json:"is_current"`
}

// SessionList is ordered by most recent activity.
type SessionList struct {
	Sessions  []SessionView `json:"sessions"`
	EmptyText string        `json:"empty_text,omitempty"`
}

// RevokeResult carries the sessions left after a revocation. SignedOut is set
// when the caller revoked their own session; the session cookie must be cleared.
type RevokeResult struct {
	SessionList
	SignedOut bool `json:"signed_out"`
}

type RevokeAllResult struct {
	Revoked   int  `json:"revoked"`
	Failed    int  `json:"failed"`
	SignedOut bool `json:"signed_out"`
}

// Profile is the account page header and form, always built from a fresh
// provider read.
type Profile struct {
	ID          id.PrincipalID `json:"id"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	ImageURL    string         `json:"image_url,omitempty"`
	// PreviewURL is set while an uploaded avatar awaits the provider.
	PreviewURL string `json:"preview_url,omitempty"`
}

func ProfileFrom(p identity.Principal) *Profile {
	return &Profile{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.DisplayName(),
		Email:       p.PrimaryEmail,
		ImageURL:    p.ImageURL,
	}
}

// Outcome is the result of an account mutation.
type Outcome struct {
	Notice      *notice.Notice    `json:"notice,omitempty"`
	Profile     *Profile          `json:"profile,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
	// HardRedirect asks the client for a full page load rather than client-side navigation.
	HardRedirect bool `json:"hard_redirect,omitempty"`
	SignedOut    bool `json:"signed_out,omitempty"`
}

// Preview is a locally held avatar shown until the provider confirms the upload.
type Preview struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
