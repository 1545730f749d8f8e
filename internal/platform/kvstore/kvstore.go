// Package kvstore is the expiring key/value layer behind flow state, avatar
// previews, pending-action flags, and the session revocation list.
package kvstore

import (
	"context"
	"time"
)

// Store holds opaque values under string keys with a mandatory TTL.
//
// Error contract:
//   - Get returns sentinel.ErrNotFound (wrapped) for missing or expired keys
//   - Delete of a missing key is not an error
//   - infrastructure failures are wrapped with sentinel.ErrUnavailable
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetIfAbsent stores value only when key is absent and reports whether it did.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// DeleteIfValue removes key only while it still holds value and reports
	// whether it did.
	DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error)
}
