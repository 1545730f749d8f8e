//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks Client

// Package identity is the capability boundary to the hosted identity provider.
// Every credential, session, and profile operation goes through Client; nothing
// here stores or verifies secrets itself.
package identity

import (
	"context"

	id "dashgate/pkg/domain"
)

// Client is the provider's backend API as consumed by the auth flows and the
// account page. Implementations must be safe for concurrent use and must not
// retry on their own.
type Client interface {
	// CreateAccount starts a sign-up attempt for the given fields.
	CreateAccount(ctx context.Context, acct NewAccount) (AttemptResult, error)
	// SendVerificationCode emails a one-time code for the sign-up attempt.
	SendVerificationCode(ctx context.Context, attemptID id.AttemptID, email string) error
	// ConfirmVerification submits the emailed code for the sign-up attempt.
	ConfirmVerification(ctx context.Context, attemptID id.AttemptID, code string) (AttemptResult, error)
	// CreateSession signs in with an identifier (email) and password.
	CreateSession(ctx context.Context, identifier, secret string) (AttemptResult, error)
	// BeginFederatedLogin starts a redirect-based OAuth sign-in.
	BeginFederatedLogin(ctx context.Context, providerID, callbackURL, completeURL string) (FederatedRedirect, error)
	// SendResetCode emails a password reset code and opens a reset attempt.
	SendResetCode(ctx context.Context, email string) (AttemptResult, error)
	// AttemptReset submits the reset code and the new password.
	AttemptReset(ctx context.Context, attemptID id.AttemptID, code, newSecret string) (AttemptResult, error)

	ListSessions(ctx context.Context, principalID id.PrincipalID) ([]Session, error)
	RevokeSession(ctx context.Context, sessionID id.SessionID) error
	// ActivateSession issues the session token that binds sessionID to the browser.
	ActivateSession(ctx context.Context, sessionID id.SessionID) (SessionToken, error)

	GetPrincipal(ctx context.Context, principalID id.PrincipalID) (Principal, error)
	UpdateProfile(ctx context.Context, principalID id.PrincipalID, update ProfileUpdate) (Principal, error)
	SetProfileImage(ctx context.Context, principalID id.PrincipalID, img Image) (Principal, error)
	// UpdatePassword changes the password after verifying the current one.
	UpdatePassword(ctx context.Context, principalID id.PrincipalID, current, next string) error
	DeleteAccount(ctx context.Context, principalID id.PrincipalID) error
}
