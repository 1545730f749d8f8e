// Package main mints session tokens for local development. Tokens are signed
// with the dev HS256 secret and are rejected by any verifier configured with
// the provider's public key.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "dashgate/internal/jwt_token"
	id "dashgate/pkg/domain"
)

const (
	// devSecret matches config.FromEnv when SESSION_JWT_SECRET is not set.
	devSecret       = "dev-session-secret-change-in-production"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Claims    map[string]string `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	principal := flag.String("principal", "", "Principal ID (sub). Generated if empty.")
	session := flag.String("session", "", "Session ID (sid). Generated if empty.")
	role := flag.String("role", "admin", "Role claim; only \"admin\" reaches the admin area")
	issuer := flag.String("issuer", os.Getenv("SESSION_JWT_ISSUER"), "Issuer (iss)")
	secret := flag.String("secret", envOr("SESSION_JWT_SECRET", devSecret), "HS256 secret")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	cookie := flag.String("cookie", envOr("SESSION_COOKIE_NAME", "__session"), "Session cookie name for usage hints")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	principalID, err := idOrGenerated(*principal, "user_", id.ParsePrincipalID)
	if err != nil {
		fail(err)
	}
	sessionID, err := idOrGenerated(*session, "sess_", id.ParseSessionID)
	if err != nil {
		fail(err)
	}

	now := time.Now()
	token, err := jwttoken.SignHS256(*secret, principalID, sessionID, *role, *issuer, now, *ttl)
	if err != nil {
		fail(fmt.Errorf("sign token: %w", err))
	}

	if !*asJSON {
		fmt.Println(token)
		return
	}
	out := tokenOutput{
		Token:     token,
		ExpiresAt: now.Add(*ttl).UTC(),
		Claims: map[string]string{
			"sub":           principalID.String(),
			"sid":           sessionID.String(),
			"metadata.role": *role,
			"iss":           *issuer,
		},
		Usage: map[string]string{
			"header": "Authorization: Bearer " + token,
			"cookie": *cookie + "=" + token,
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fail(err)
	}
}

func idOrGenerated[T any](value, prefix string, parse func(string) (T, error)) (T, error) {
	if value == "" {
		value = prefix + uuid.NewString()[:8]
	}
	return parse(value)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "tokengen:", err)
	os.Exit(1)
}
