package identity

import (
	"strings"
	"time"

	id "dashgate/pkg/domain"
)

// Status is the provider's state for a sign-in, sign-up, or reset attempt.
type Status string

const (
	StatusComplete            Status = "complete"
	StatusNeedsSecondFactor   Status = "needs_second_factor"
	StatusNeedsFirstFactor    Status = "needs_first_factor"
	StatusMissingRequirements Status = "missing_requirements"
)

// Federated sign-in providers offered on the sign-in page.
const (
	ProviderGoogle    = "oauth_google"
	ProviderGitHub    = "oauth_github"
	ProviderMicrosoft = "oauth_microsoft"
)

// FederatedProviders lists the accepted provider identifiers in display order.
var FederatedProviders = []string{ProviderGoogle, ProviderGitHub, ProviderMicrosoft}

// RoleAdmin is the role claim that grants the admin area.
const RoleAdmin = "admin"

// Principal is the signed-in account, always fetched fresh from the provider.
type Principal struct {
	ID           id.PrincipalID `json:"id"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Username     string         `json:"username,omitempty"`
	PrimaryEmail string         `json:"email"`
	ImageURL     string         `json:"image_url,omitempty"`
	Role         string         `json:"role,omitempty"`
}

// FullName joins the non-empty name parts.
func (p Principal) FullName() string {
	return strings.TrimSpace(strings.Join([]string{p.FirstName, p.LastName}, " "))
}

// DisplayName is what the navigation shows: full name, then username, then
// a generic label.
func (p Principal) DisplayName() string {
	if n := p.FullName(); n != "" {
		return n
	}
	if p.Username != "" {
		return p.Username
	}
	return "User"
}

// Activity is the provider's record of the client that last used a session.
type Activity struct {
	BrowserName    string
	BrowserVersion string
	DeviceType     string
	IsMobile       bool
	City           string
	Country        string
	IPAddress      string
	UserAgent      string
}

// Session is one signed-in browser or device.
type Session struct {
	ID           id.SessionID
	PrincipalID  id.PrincipalID
	Status       string
	LastActiveAt time.Time
	ExpireAt     time.Time
	Activity     *Activity
}

// NewAccount carries the registration fields. Password is sent once and never stored.
type NewAccount struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AttemptResult is the outcome of a sign-up, sign-in, verification, or reset step.
type AttemptResult struct {
	AttemptID id.AttemptID
	Status    Status
	// SessionID is set when Status is complete.
	SessionID id.SessionID
}

// IsComplete reports a terminal status carrying a session to activate.
func (r AttemptResult) IsComplete() bool {
	return r.Status == StatusComplete && !r.SessionID.IsNil()
}

// FederatedRedirect is where the browser must go to continue an OAuth sign-in.
type FederatedRedirect struct {
	AttemptID   id.AttemptID
	RedirectURL string
}

// SessionToken is the provider-signed token that authenticates the browser.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

// ProfileUpdate holds the editable name fields.
type ProfileUpdate struct {
	FirstName string
	LastName  string
}

// Image is an uploaded avatar.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}
