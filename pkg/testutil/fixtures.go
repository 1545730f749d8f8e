package testutil

import (
	"time"

	"dashgate/internal/identity"
	id "dashgate/pkg/domain"
)

// TestIDs are fixed provider identifiers for deterministic test data.
var TestIDs = struct {
	PrincipalID1 id.PrincipalID
	PrincipalID2 id.PrincipalID
	SessionID1   id.SessionID
	SessionID2   id.SessionID
	SessionID3   id.SessionID
	AttemptID1   id.AttemptID
}{
	PrincipalID1: "user_2a1b3c",
	PrincipalID2: "user_9z8y7x",
	SessionID1:   "sess_current",
	SessionID2:   "sess_laptop",
	SessionID3:   "sess_phone",
	AttemptID1:   "sua_123",
}

// PrincipalBuilder provides a fluent interface for building test principals.
type PrincipalBuilder struct {
	p identity.Principal
}

// NewPrincipalBuilder starts from a signed-up admin named Jo Do.
func NewPrincipalBuilder() *PrincipalBuilder {
	return &PrincipalBuilder{p: identity.Principal{
		ID:           TestIDs.PrincipalID1,
		FirstName:    "Jo",
		LastName:     "Do",
		PrimaryEmail: "jo@x.com",
		Role:         identity.RoleAdmin,
	}}
}

func (b *PrincipalBuilder) WithID(principalID id.PrincipalID) *PrincipalBuilder {
	b.p.ID = principalID
	return b
}

func (b *PrincipalBuilder) WithName(first, last string) *PrincipalBuilder {
	b.p.FirstName = first
	b.p.LastName = last
	return b
}

func (b *PrincipalBuilder) WithEmail(email string) *PrincipalBuilder {
	b.p.PrimaryEmail = email
	return b
}

func (b *PrincipalBuilder) WithImageURL(url string) *PrincipalBuilder {
	b.p.ImageURL = url
	return b
}

func (b *PrincipalBuilder) WithRole(role string) *PrincipalBuilder {
	b.p.Role = role
	return b
}

func (b *PrincipalBuilder) Build() identity.Principal {
	return b.p
}

// SessionBuilder builds provider sessions for the device list.
type SessionBuilder struct {
	s identity.Session
}

// NewSessionBuilder starts from an active session last used at lastActive.
func NewSessionBuilder(sessionID id.SessionID, lastActive time.Time) *SessionBuilder {
	return &SessionBuilder{s: identity.Session{
		ID:           sessionID,
		PrincipalID:  TestIDs.PrincipalID1,
		Status:       "active",
		LastActiveAt: lastActive,
		ExpireAt:     lastActive.Add(7 * 24 * time.Hour),
	}}
}

func (b *SessionBuilder) ForPrincipal(principalID id.PrincipalID) *SessionBuilder {
	b.s.PrincipalID = principalID
	return b
}

func (b *SessionBuilder) WithBrowser(name, version string) *SessionBuilder {
	b.ensureActivity()
	b.s.Activity.BrowserName = name
	b.s.Activity.BrowserVersion = version
	return b
}

func (b *SessionBuilder) WithDeviceType(deviceType string, mobile bool) *SessionBuilder {
	b.ensureActivity()
	b.s.Activity.DeviceType = deviceType
	b.s.Activity.IsMobile = mobile
	return b
}

func (b *SessionBuilder) WithUserAgent(ua string) *SessionBuilder {
	b.ensureActivity()
	b.s.Activity.UserAgent = ua
	return b
}

func (b *SessionBuilder) WithLocation(city, country string) *SessionBuilder {
	b.ensureActivity()
	b.s.Activity.City = city
	b.s.Activity.Country = country
	return b
}

func (b *SessionBuilder) ensureActivity() {
	if b.s.Activity == nil {
		b.s.Activity = &identity.Activity{}
	}
}

func (b *SessionBuilder) Build() identity.Session {
	return b.s
}
