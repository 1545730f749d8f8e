// Package revocation remembers sessions revoked from this service so their
// still-unexpired tokens stop authenticating immediately.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashgate/internal/platform/kvstore"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
)

// DefaultTTL outlives the provider's session token lifetime.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "revoked:session:"

// List is backed by the shared kvstore, so every replica sees a revocation
// once Redis is configured.
type List struct {
	kv  kvstore.Store
	ttl time.Duration
}

func New(kv kvstore.Store, ttl time.Duration) *List {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &List{kv: kv, ttl: ttl}
}

// Revoke adds a session to the list with TTL.
func (l *List) Revoke(ctx context.Context, sessionID id.SessionID) error {
	if err := l.kv.Set(ctx, keyPrefix+sessionID.String(), []byte{1}, l.ttl); err != nil {
		return fmt.Errorf("revoke session %s: %w", sessionID, err)
	}
	return nil
}

// IsSessionRevoked checks if a session is in the revocation list.
func (l *List) IsSessionRevoked(ctx context.Context, sessionID id.SessionID) (bool, error) {
	_, err := l.kv.Get(ctx, keyPrefix+sessionID.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return true, nil
}
