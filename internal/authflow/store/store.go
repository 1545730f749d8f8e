// Package store keeps per-browser auth flow state (sign-up drafts and reset
// steps) in the kvstore, keyed by the flow cookie.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dashgate/internal/authflow/models"
	"dashgate/internal/platform/kvstore"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
)

// FlowStore error contract: Load* return sentinel.ErrNotFound (wrapped) for
// missing or expired state, except LoadReset which starts a fresh flow.
type FlowStore struct {
	kv  kvstore.Store
	ttl time.Duration
}

func New(kv kvstore.Store, ttl time.Duration) *FlowStore {
	return &FlowStore{kv: kv, ttl: ttl}
}

func draftKey(flowID id.FlowID) string { return "flow:signup:" + flowID.String() }
func resetKey(flowID id.FlowID) string { return "flow:reset:" + flowID.String() }

func (s *FlowStore) SaveDraft(ctx context.Context, flowID id.FlowID, draft models.SignupDraft) error {
	return s.put(ctx, draftKey(flowID), draft)
}

func (s *FlowStore) LoadDraft(ctx context.Context, flowID id.FlowID) (models.SignupDraft, error) {
	var draft models.SignupDraft
	if err := s.get(ctx, draftKey(flowID), &draft); err != nil {
		return models.SignupDraft{}, err
	}
	return draft, nil
}

func (s *FlowStore) DeleteDraft(ctx context.Context, flowID id.FlowID) error {
	return s.kv.Delete(ctx, draftKey(flowID))
}

func (s *FlowStore) SaveReset(ctx context.Context, flowID id.FlowID, state models.ResetState) error {
	if !state.Valid() {
		return fmt.Errorf("save reset state %q: %w", state.Step, sentinel.ErrInvalidState)
	}
	return s.put(ctx, resetKey(flowID), state)
}

// LoadReset returns AwaitingEmail when no state is stored. A stored state that
// fails Valid is discarded the same way.
func (s *FlowStore) LoadReset(ctx context.Context, flowID id.FlowID) (models.ResetState, error) {
	var state models.ResetState
	err := s.get(ctx, resetKey(flowID), &state)
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && !state.Valid()) {
		return models.AwaitingEmail(), nil
	}
	if err != nil {
		return models.ResetState{}, err
	}
	return state, nil
}

func (s *FlowStore) DeleteReset(ctx context.Context, flowID id.FlowID) error {
	return s.kv.Delete(ctx, resetKey(flowID))
}

func (s *FlowStore) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, b, s.ttl)
}

func (s *FlowStore) get(ctx context.Context, key string, v any) error {
	b, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		// Undecodable state is as good as missing.
		return fmt.Errorf("decode %s: %w", key, sentinel.ErrNotFound)
	}
	return nil
}
