package guardrail

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/pauser"
	slashmanager "github.com/satlayer/satlayer-restaking/slash-manager"
)

type fakeSlashManager struct {
	requests map[string]slashmanager.SlashingRequest
}

func (f *fakeSlashManager) Address() string {
	return types.ContractAddress("slash-manager")
}

func (f *fakeSlashManager) SlashingRequest(id string) (slashmanager.SlashingRequest, bool, error) {
	req, ok := f.requests[id]
	return req, ok, nil
}

type GuardrailTestSuite struct {
	suite.Suite
	g       *Guardrail
	sm      *fakeSlashManager
	owner   string
	a, b, c string
	height  int64
	now     time.Time
}

func TestGuardrail(t *testing.T) {
	suite.Run(t, new(GuardrailTestSuite))
}

func (s *GuardrailTestSuite) SetupTest() {
	s.owner = types.GenerateAddress("owner")
	s.a = types.GenerateAddress("a")
	s.b = types.GenerateAddress("b")
	s.c = types.GenerateAddress("c")
	s.height = 10
	s.now = time.Unix(1_700_000_000, 0).UTC()

	kv := store.NewMemStore()
	p := pauser.New(store.Prefix(kv, "pauser"), types.ContractAddress("pauser"))
	s.Require().NoError(p.Instantiate(pauser.InstantiateMsg{Owner: s.owner}))

	s.sm = &fakeSlashManager{requests: map[string]slashmanager.SlashingRequest{}}
	for _, id := range []string{"req-1", "req-2"} {
		s.sm.requests[id] = slashmanager.SlashingRequest{
			Service:       types.GenerateAddress("service"),
			RequestTime:   s.now.Unix(),
			RequestExpiry: s.now.Add(48 * time.Hour).Unix(),
			Status:        slashmanager.Requested,
		}
	}

	s.g = New(store.Prefix(kv, "guardrail"), types.ContractAddress("guardrail"), p, s.sm)
	s.Require().NoError(s.g.Instantiate(s.env(), InstantiateMsg{
		Owner:     s.owner,
		Members:   []Member{{Addr: s.a, Weight: 1}, {Addr: s.b, Weight: 1}, {Addr: s.c, Weight: 1}},
		Threshold: "0.6",
	}))
	s.height++
}

func (s *GuardrailTestSuite) env() types.Env {
	return types.Env{Block: types.BlockInfo{Height: s.height, Time: s.now}}
}

func (s *GuardrailTestSuite) execute(sender string, msg ExecuteMsg) (*types.Response, error) {
	return s.g.Execute(s.env(), types.MessageInfo{Sender: sender}, msg)
}

func (s *GuardrailTestSuite) propose(sender, id string) error {
	_, err := s.execute(sender, ExecuteMsg{Propose: &Propose{SlashingRequestID: id, Reason: "approve"}})
	return err
}

func (s *GuardrailTestSuite) vote(sender, id string, b Ballot) error {
	_, err := s.execute(sender, ExecuteMsg{Vote: &Vote{SlashingRequestID: id, Vote: b}})
	return err
}

func (s *GuardrailTestSuite) proposal(id string) Proposal {
	got, err := s.g.Query(s.env(), QueryMsg{ProposalBySlashingRequestID: &ProposalRef{SlashingRequestID: id}})
	s.Require().NoError(err)
	p, ok := got.(ProposalResponse)
	s.Require().True(ok)
	s.Require().NotNil(p)
	return *p
}

func (s *GuardrailTestSuite) TestPropose() {
	s.ErrorIs(s.propose(types.GenerateAddress("stranger"), "req-1"), types.ErrUnauthorized)
	s.ErrorIs(s.propose(s.a, "missing"), types.ErrNotFound)

	s.Require().NoError(s.propose(s.a, "req-1"))
	p := s.proposal("req-1")
	s.Equal(Open, p.Status)
	s.Equal(uint64(1), p.Votes.Yes)
	s.Equal(uint64(3), p.TotalWeight)
	s.Equal(s.sm.requests["req-1"].RequestExpiry, p.Expires)

	s.ErrorIs(s.propose(s.b, "req-1"), types.ErrAlreadyExists)
	s.ErrorIs(s.vote(s.a, "req-1", No), types.ErrAlreadyExists)
}

func (s *GuardrailTestSuite) TestPass() {
	s.Require().NoError(s.propose(s.a, "req-1"))
	passed, err := s.g.ProposalPassed("req-1", s.now)
	s.Require().NoError(err)
	s.False(passed)

	s.Require().NoError(s.vote(s.b, "req-1", Yes))
	s.Equal(Passed, s.proposal("req-1").Status)

	passed, err = s.g.ProposalPassed("req-1", s.now)
	s.Require().NoError(err)
	s.True(passed)

	s.ErrorIs(s.vote(s.c, "req-1", No), types.ErrInvalidInput)

	passed, err = s.g.ProposalPassed("req-2", s.now)
	s.Require().NoError(err)
	s.False(passed)
}

func (s *GuardrailTestSuite) TestRejectWhenUnreachable() {
	s.Require().NoError(s.propose(s.a, "req-1"))
	s.Require().NoError(s.vote(s.b, "req-1", No))
	s.Equal(Open, s.proposal("req-1").Status)

	s.Require().NoError(s.vote(s.c, "req-1", Abstain))
	s.Equal(Rejected, s.proposal("req-1").Status)

	res, err := s.execute(s.c, ExecuteMsg{Veto: &ProposalRef{SlashingRequestID: "req-1"}})
	s.Require().NoError(err)
	s.Require().Len(res.Messages, 1)
	s.Equal(s.sm.Address(), res.Messages[0].Contract)

	var cancel slashmanager.ExecuteMsg
	s.Require().NoError(json.Unmarshal(res.Messages[0].Msg, &cancel))
	s.Require().NotNil(cancel.SlashingCancel)
	s.Equal("req-1", cancel.SlashingCancel.SlashingRequestID)
}

func (s *GuardrailTestSuite) TestVetoRequiresRejected() {
	s.Require().NoError(s.propose(s.a, "req-1"))
	_, err := s.execute(s.a, ExecuteMsg{Veto: &ProposalRef{SlashingRequestID: "req-1"}})
	s.ErrorIs(err, types.ErrInvalidInput)
}

func (s *GuardrailTestSuite) TestWeightsAtStartHeight() {
	s.Require().NoError(s.propose(s.a, "req-1"))

	d := types.GenerateAddress("d")
	s.height++
	_, err := s.execute(s.owner, ExecuteMsg{UpdateMembers: &UpdateMembers{
		Add:    []Member{{Addr: d, Weight: 5}},
		Remove: []string{s.b},
	}})
	s.Require().NoError(err)

	// d joined after the proposal started, b still votes with its old weight
	s.ErrorIs(s.vote(d, "req-1", Yes), types.ErrUnauthorized)
	s.Require().NoError(s.vote(s.b, "req-1", Yes))
	s.Equal(Passed, s.proposal("req-1").Status)

	got, err := s.g.Query(s.env(), QueryMsg{Threshold: &ThresholdQuery{}})
	s.Require().NoError(err)
	s.Equal(ThresholdResponse{Percentage: "0.6", TotalWeight: 7}, got)

	start := int64(10)
	got, err = s.g.Query(s.env(), QueryMsg{Threshold: &ThresholdQuery{Height: &start}})
	s.Require().NoError(err)
	s.Equal(ThresholdResponse{Percentage: "0.6", TotalWeight: 3}, got)

	got, err = s.g.Query(s.env(), QueryMsg{Voter: &VoterQuery{Address: s.b}})
	s.Require().NoError(err)
	s.Nil(got.(VoterResponse).Weight)

	got, err = s.g.Query(s.env(), QueryMsg{Voter: &VoterQuery{Address: s.b, Height: &start}})
	s.Require().NoError(err)
	s.Equal(uint64(1), *got.(VoterResponse).Weight)

	_, err = s.execute(s.a, ExecuteMsg{UpdateMembers: &UpdateMembers{Remove: []string{s.c}}})
	s.ErrorIs(err, types.ErrUnauthorized)
}

func (s *GuardrailTestSuite) TestClose() {
	s.Require().NoError(s.propose(s.a, "req-1"))

	_, err := s.execute(s.a, ExecuteMsg{Close: &ProposalRef{SlashingRequestID: "req-1"}})
	s.ErrorIs(err, types.ErrLocked)

	s.now = s.now.Add(48 * time.Hour)
	s.ErrorIs(s.vote(s.b, "req-1", Yes), types.ErrExpired)
	s.Equal(Rejected, s.proposal("req-1").Status)

	res, err := s.execute(s.b, ExecuteMsg{Close: &ProposalRef{SlashingRequestID: "req-1"}})
	s.Require().NoError(err)
	s.Equal("ProposalClosed", res.Events[0].Type)

	_, err = s.execute(s.b, ExecuteMsg{Close: &ProposalRef{SlashingRequestID: "req-1"}})
	s.ErrorIs(err, types.ErrInvalidInput)

	// expired requests cannot be proposed
	s.ErrorIs(s.propose(s.a, "req-2"), types.ErrExpired)
}

func (s *GuardrailTestSuite) TestListQueries() {
	s.Require().NoError(s.propose(s.a, "req-1"))
	s.Require().NoError(s.propose(s.b, "req-2"))
	s.Require().NoError(s.vote(s.c, "req-1", No))

	got, err := s.g.Query(s.env(), QueryMsg{ListProposals: &ListProposals{}})
	s.Require().NoError(err)
	s.Len(got.(ProposalListResponse).Proposals, 2)

	first := uint64(0)
	got, err = s.g.Query(s.env(), QueryMsg{ListProposals: &ListProposals{StartAfter: &first}})
	s.Require().NoError(err)
	s.Equal("req-2", got.(ProposalListResponse).Proposals[0].SlashingRequestID)

	got, err = s.g.Query(s.env(), QueryMsg{ListVotes: &ListVotes{ProposalID: 0}})
	s.Require().NoError(err)
	s.Len(got.(VoteListResponse).Votes, 2)

	got, err = s.g.Query(s.env(), QueryMsg{VoteBySlashingRequestID: &VoteByRequestID{SlashingRequestID: "req-1", Voter: s.c}})
	s.Require().NoError(err)
	s.Equal(No, got.(VoteResponse).Vote)

	got, err = s.g.Query(s.env(), QueryMsg{ListVoters: &ListVoters{}})
	s.Require().NoError(err)
	s.Len(got.(VoterListResponse).Voters, 3)
}

func TestRequiredWeight(t *testing.T) {
	tests := []struct {
		total uint64
		pct   string
		want  uint64
	}{
		{3, "0.6", 2},
		{3, "0.67", 3},
		{10, "0.5", 5},
		{1, "0.01", 1},
		{100, "1", 100},
	}
	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredWeight(tt.total, decimal.RequireFromString(tt.pct)))
		})
	}
}

func TestInvalidThreshold(t *testing.T) {
	for _, pct := range []string{"0", "1.5", "-0.1", "abc"} {
		_, err := parsePercentage(pct)
		assert.ErrorIs(t, err, types.ErrInvalidInput, pct)
	}
}

func TestBallotJSON(t *testing.T) {
	var v Vote
	assert.NoError(t, json.Unmarshal([]byte(`{"slashing_request_id":"x","vote":"abstain"}`), &v))
	assert.Equal(t, Abstain, v.Vote)
	assert.Error(t, json.Unmarshal([]byte(`{"vote":"maybe"}`), &v))
}
