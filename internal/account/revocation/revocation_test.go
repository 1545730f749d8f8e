package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgate/internal/platform/kvstore"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
)

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a revoked session When checked Then it is reported revoked", func(t *testing.T) {
		list := New(kvstore.NewMemory(), time.Hour)
		require.NoError(t, list.Revoke(ctx, "sess_1"))

		revoked, err := list.IsSessionRevoked(ctx, "sess_1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = list.IsSessionRevoked(ctx, "sess_2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("Given the ttl has passed When checked Then the entry is gone", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		list := New(kvstore.NewMemory(kvstore.WithClock(func() time.Time { return now })), time.Minute)
		require.NoError(t, list.Revoke(ctx, "sess_1"))

		now = now.Add(2 * time.Minute)
		revoked, err := list.IsSessionRevoked(ctx, "sess_1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("Given the store is down When checked Then the error surfaces", func(t *testing.T) {
		list := New(failingStore{}, 0)
		_, err := list.IsSessionRevoked(ctx, id.SessionID("sess_1"))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}

type failingStore struct{ kvstore.Store }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.Join(sentinel.ErrUnavailable, errors.New("connection refused"))
}
