package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"dashgate/internal/authflow/models"
	"dashgate/internal/platform/kvstore"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
)

type FlowStoreSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	store *FlowStore
	ctx   context.Context
}

func TestFlowStoreSuite(t *testing.T) {
	suite.Run(t, new(FlowStoreSuite))
}

func (s *FlowStoreSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	s.store = New(kvstore.NewRedis(client, "dashgate:"), 15*time.Minute)
	s.ctx = context.Background()
}

func (s *FlowStoreSuite) TestDraftRoundTripAndExpiry() {
	flowID := id.NewFlowID()
	draft := models.SignupDraft{Email: "jo@x.com", AttemptID: "sua_1"}
	s.Require().NoError(s.store.SaveDraft(s.ctx, flowID, draft))

	got, err := s.store.LoadDraft(s.ctx, flowID)
	s.Require().NoError(err)
	s.Equal(draft, got)

	s.mr.FastForward(16 * time.Minute)
	_, err = s.store.LoadDraft(s.ctx, flowID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *FlowStoreSuite) TestDraftDoesNotStorePassword() {
	flowID := id.NewFlowID()
	s.Require().NoError(s.store.SaveDraft(s.ctx, flowID, models.SignupDraft{Email: "jo@x.com", AttemptID: "sua_1"}))

	raw, err := s.mr.Get("dashgate:flow:signup:" + flowID.String())
	s.Require().NoError(err)
	s.JSONEq(`{"email":"jo@x.com","attempt_id":"sua_1"}`, raw)
}

func (s *FlowStoreSuite) TestDeleteDraft() {
	flowID := id.NewFlowID()
	s.Require().NoError(s.store.SaveDraft(s.ctx, flowID, models.SignupDraft{Email: "jo@x.com", AttemptID: "sua_1"}))
	s.Require().NoError(s.store.DeleteDraft(s.ctx, flowID))

	_, err := s.store.LoadDraft(s.ctx, flowID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *FlowStoreSuite) TestResetStartsAwaitingEmail() {
	state, err := s.store.LoadReset(s.ctx, id.NewFlowID())
	s.Require().NoError(err)
	s.Equal(models.AwaitingEmail(), state)
}

func (s *FlowStoreSuite) TestResetAdvances() {
	flowID := id.NewFlowID()
	next := models.AwaitingCodeAndPassword("jo@x.com", "sia_1")
	s.Require().NoError(s.store.SaveReset(s.ctx, flowID, next))

	got, err := s.store.LoadReset(s.ctx, flowID)
	s.Require().NoError(err)
	s.Equal(next, got)
}

func (s *FlowStoreSuite) TestSaveResetRejectsInvalidState() {
	err := s.store.SaveReset(s.ctx, id.NewFlowID(), models.ResetState{Step: models.StepAwaitingCodeAndPassword})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *FlowStoreSuite) TestCorruptResetStateStartsOver() {
	flowID := id.NewFlowID()
	s.Require().NoError(s.mr.Set("dashgate:flow:reset:"+flowID.String(), "{not json"))

	state, err := s.store.LoadReset(s.ctx, flowID)
	s.Require().NoError(err)
	s.Equal(models.StepAwaitingEmail, state.Step)
}

func (s *FlowStoreSuite) TestUnavailableStoreSurfaces() {
	s.mr.Close()
	_, err := s.store.LoadReset(s.ctx, id.NewFlowID())
	s.ErrorIs(err, sentinel.ErrUnavailable)
}
