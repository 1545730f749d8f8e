package pending

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgate/internal/platform/kvstore"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/testutil"
)

type countingRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (c *countingRecorder) IncDuplicateSubmission(action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
}

type failingKV struct{ kvstore.Store }

func (failingKV) SetIfAbsent(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, sentinel.ErrUnavailable
}

func TestAcquireRejectsDuplicateUntilReleased(t *testing.T) {
	rec := &countingRecorder{}
	tracker := New(kvstore.NewMemory(), WithMetrics(rec))
	ctx := context.Background()
	key := FlowKey("sign_up", id.NewFlowID())

	release, err := tracker.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = tracker.Acquire(ctx, key)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.ErrorIs(t, err, sentinel.ErrInFlight)
	assert.Equal(t, []string{"flow:sign_up"}, rec.actions)

	release()
	release2, err := tracker.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}

func TestDifferentActionsDoNotBlockEachOther(t *testing.T) {
	tracker := New(kvstore.NewMemory())
	ctx := context.Background()
	principal := id.PrincipalID("user_1")

	releaseProfile, err := tracker.Acquire(ctx, AccountKey("update_profile", principal))
	require.NoError(t, err)
	defer releaseProfile()

	releaseAvatar, err := tracker.Acquire(ctx, AccountKey("update_avatar", principal))
	require.NoError(t, err)
	defer releaseAvatar()

	releaseOther, err := tracker.Acquire(ctx, AccountKey("update_profile", "user_2"))
	require.NoError(t, err)
	releaseOther()
}

func TestReleaseSurvivesCancelledContext(t *testing.T) {
	tracker := New(kvstore.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	key := AccountKey("delete_account", "user_1")

	release, err := tracker.Acquire(ctx, key)
	require.NoError(t, err)
	cancel()
	release()

	_, err = tracker.Acquire(context.Background(), key)
	require.NoError(t, err)
}

func TestStaleReleaseKeepsNewerHolder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kv := kvstore.NewMemory(kvstore.WithClock(func() time.Time { return now }))
	tracker := New(kv, WithTTL(time.Minute))
	ctx := context.Background()
	key := FlowKey("sign_in", id.NewFlowID())

	releaseSlow, err := tracker.Acquire(ctx, key)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	releaseFresh, err := tracker.Acquire(ctx, key)
	require.NoError(t, err, "an expired flag can be taken over")

	releaseSlow()
	_, err = tracker.Acquire(ctx, key)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "the newer holder's flag must survive a stale release")

	releaseFresh()
	release, err := tracker.Acquire(ctx, key)
	require.NoError(t, err)
	release()
}

func TestConcurrentAcquireAdmitsOne(t *testing.T) {
	tracker := New(kvstore.NewMemory())
	key := FlowKey("sign_in", id.NewFlowID())

	result := testutil.RunConcurrent(10, func(int) error {
		_, err := tracker.Acquire(context.Background(), key)
		return err
	})

	assert.Equal(t, int32(1), result.Successes)
	assert.Equal(t, int32(9), result.Conflicts)
}

func TestStoreFailureIsInternal(t *testing.T) {
	tracker := New(failingKV{})
	_, err := tracker.Acquire(context.Background(), FlowKey("reset", id.NewFlowID()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.False(t, errors.Is(err, sentinel.ErrInFlight))
}
