// Package jwttoken verifies the session tokens the identity provider issues to
// the browser and resolves them into a request session.
package jwttoken

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"dashgate/internal/platform/config"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/requestcontext"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by a provider session token.
// The role lives in the public metadata; a top-level role claim is accepted
// for tokens minted by custom session templates.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role,omitempty"`
	Metadata  struct {
		Role string `json:"role,omitempty"`
	} `json:"metadata"`
	jwt.RegisteredClaims
}

// EffectiveRole prefers the metadata role.
func (c *SessionClaims) EffectiveRole() string {
	if c.Metadata.Role != "" {
		return c.Metadata.Role
	}
	return c.Role
}

// Verifier validates session tokens with either an RSA public key or a shared secret.
type Verifier struct {
	method    jwt.SigningMethod
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
	leeway    time.Duration
	now       func() time.Time
}

type VerifierOption func(*Verifier)

// WithClock pins the time used for expiry checks.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier prefers the RS256 public key when both are configured.
func NewVerifier(cfg config.Session, opts ...VerifierOption) (*Verifier, error) {
	v := &Verifier{issuer: cfg.Issuer, leeway: cfg.Leeway, now: time.Now}
	switch {
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		v.method = jwt.SigningMethodRS256
		v.publicKey = key
	case cfg.Secret != "":
		v.method = jwt.SigningMethodHS256
		v.secret = []byte(cfg.Secret)
	default:
		return nil, errors.New("session verifier needs a public key or a secret")
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify parses tokenString and returns its claims. Expired tokens yield
// "token expired"; everything else is "invalid token". Both are unauthorized.
func (v *Verifier) Verify(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing token")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	claims := new(SessionClaims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, v.key, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (v *Verifier) key(*jwt.Token) (any, error) {
	if v.publicKey != nil {
		return v.publicKey, nil
	}
	return v.secret, nil
}

// Resolve verifies tokenString and converts it to a request session.
func (v *Verifier) Resolve(tokenString string) (requestcontext.Session, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return requestcontext.Session{}, err
	}
	principalID, err := id.ParsePrincipalID(claims.Subject)
	if err != nil {
		return requestcontext.Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return requestcontext.Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token session")
	}
	s := requestcontext.Session{
		PrincipalID: principalID,
		SessionID:   sessionID,
		Role:        claims.EffectiveRole(),
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// SignHS256 mints a session token with a shared secret. Used by local tooling
// and tests; production tokens are always minted by the provider.
func SignHS256(secret string, principalID id.PrincipalID, sessionID id.SessionID, role, issuer string, now time.Time, ttl time.Duration) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	claims.Metadata.Role = role
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
