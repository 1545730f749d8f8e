// Package pending rejects a second concurrent submission of the same action.
// Keys are shared through the kvstore, so the guard holds across replicas when
// the store is Redis.
package pending

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dashgate/internal/platform/kvstore"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/requestcontext"
)

const defaultTTL = 2 * time.Minute

const keyPrefix = "pending:"

// DuplicateRecorder counts rejected duplicates. *metrics.Metrics satisfies it.
type DuplicateRecorder interface {
	IncDuplicateSubmission(action string)
}

type Tracker struct {
	kv      kvstore.Store
	ttl     time.Duration
	metrics DuplicateRecorder
	logger  *slog.Logger
}

type Option func(*Tracker)

// WithTTL bounds how long a crashed holder can block the action.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func WithMetrics(m DuplicateRecorder) Option {
	return func(t *Tracker) { t.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

func New(kv kvstore.Store, opts ...Option) *Tracker {
	t := &Tracker{kv: kv, ttl: defaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key names one action. Flow actions are scoped to the browser's flow;
// account actions to the principal.
type Key struct {
	scope  string
	action string
	owner  string
}

func FlowKey(action string, flowID id.FlowID) Key {
	return Key{scope: "flow", action: action, owner: flowID.String()}
}

func AccountKey(action string, principalID id.PrincipalID) Key {
	return Key{scope: "account", action: action, owner: principalID.String()}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.scope, k.action, k.owner)
}

// Acquire marks key as in flight. The returned release must be called on every
// exit path; it survives cancellation of ctx and only clears the flag this
// call set, so a holder that outlives the TTL cannot release a newer holder.
// A second Acquire of a held key fails with a conflict that wraps
// sentinel.ErrInFlight.
func (t *Tracker) Acquire(ctx context.Context, key Key) (release func(), err error) {
	storeKey := keyPrefix + key.String()
	token := []byte(requestcontext.RequestID(ctx) + "/" + uuid.NewString())
	ok, err := t.kv.SetIfAbsent(ctx, storeKey, token, t.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to track pending request")
	}
	if !ok {
		if t.metrics != nil {
			t.metrics.IncDuplicateSubmission(key.scope + ":" + key.action)
		}
		t.logger.InfoContext(ctx, "duplicate submission rejected",
			"action", key.action,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(sentinel.ErrInFlight, dErrors.CodeConflict, "request already in progress")
	}

	releaseCtx := context.WithoutCancel(ctx)
	return func() {
		released, err := t.kv.DeleteIfValue(releaseCtx, storeKey, token)
		if err != nil {
			t.logger.WarnContext(releaseCtx, "failed to release pending request",
				"action", key.action,
				"error", err,
			)
			return
		}
		if !released {
			t.logger.WarnContext(releaseCtx, "pending request outlived its flag",
				"action", key.action,
				"ttl", t.ttl,
			)
		}
	}, nil
}
