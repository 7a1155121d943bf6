package guardrail

import (
	"encoding/json"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/types"
)

func UnmarshalInstantiateMsg(data []byte) (InstantiateMsg, error) {
	var r InstantiateMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *InstantiateMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalExecuteMsg(data []byte) (ExecuteMsg, error) {
	var r ExecuteMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *ExecuteMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalQueryMsg(data []byte) (QueryMsg, error) {
	var r QueryMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *QueryMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

type ThresholdResponse struct {
	// Absolute percentage as a decimal string, e.g. "0.67".
	Percentage  string `json:"percentage"`
	TotalWeight uint64 `json:"total_weight"`
}

// Null when the proposal does not exist.
type ProposalResponse *Proposal

type ProposalListResponse struct {
	Proposals []Proposal `json:"proposals"`
}

// Null when the voter has not voted.
type VoteResponse *VoteInfo

type VoteListResponse struct {
	Votes []VoteInfo `json:"votes"`
}

type VoterResponse struct {
	Weight *uint64 `json:"weight"`
}

type VoterListResponse struct {
	Voters []Member `json:"voters"`
}

type Member struct {
	Addr   string `json:"addr"`
	Weight uint64 `json:"weight"`
}

type InstantiateMsg struct {
	Owner   string   `json:"owner"`
	Members []Member `json:"members"`
	// Absolute percentage of the total weight required to pass, in (0, 1].
	Threshold string `json:"threshold"`
}

// ExecuteMsg Propose opens a proposal to approve the slashing request. Only a member can call
// this message, and the proposer votes yes. There is at most one proposal per slashing
// request, and it expires with the request.
//
// ExecuteMsg Vote casts the sender's weight, as of the proposal start height, on an open
// proposal.
//
// ExecuteMsg Close rejects an open proposal that has expired.
//
// ExecuteMsg Veto cancels the slashing request of a rejected proposal.
//
// ExecuteMsg UpdateMembers adds, reweights and removes members. Only the `owner` can call this
// message. Open proposals keep the weights of their start height.
type ExecuteMsg struct {
	Propose           *Propose                     `json:"propose,omitempty"`
	Vote              *Vote                        `json:"vote,omitempty"`
	Close             *ProposalRef                 `json:"close,omitempty"`
	Veto              *ProposalRef                 `json:"veto,omitempty"`
	UpdateMembers     *UpdateMembers               `json:"update_members,omitempty"`
	TransferOwnership *ownership.TransferOwnership `json:"transfer_ownership,omitempty"`
	AcceptOwnership   *ownership.AcceptOwnership   `json:"accept_ownership,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.Propose != nil:
		return "propose"
	case m.Vote != nil:
		return "vote"
	case m.Close != nil:
		return "close"
	case m.Veto != nil:
		return "veto"
	case m.UpdateMembers != nil:
		return "update_members"
	case m.TransferOwnership != nil:
		return "transfer_ownership"
	case m.AcceptOwnership != nil:
		return "accept_ownership"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(m.Propose != nil, m.Vote != nil, m.Close != nil, m.Veto != nil,
		m.UpdateMembers != nil, m.TransferOwnership != nil, m.AcceptOwnership != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type Propose struct {
	SlashingRequestID string `json:"slashing_request_id"`
	Reason            string `json:"reason"`
}

type Vote struct {
	SlashingRequestID string `json:"slashing_request_id"`
	Vote              Ballot `json:"vote"`
}

type ProposalRef struct {
	SlashingRequestID string `json:"slashing_request_id"`
}

type UpdateMembers struct {
	Add    []Member `json:"add"`
	Remove []string `json:"remove"`
}

// QueryMsg Threshold: returns the percentage and the total weight at `height`, or at the
// latest height.
//
// QueryMsg Voter: returns the weight of `address` at `height`, or at the latest height.
type QueryMsg struct {
	Threshold                   *ThresholdQuery  `json:"threshold,omitempty"`
	Proposal                    *ProposalQuery   `json:"proposal,omitempty"`
	ProposalBySlashingRequestID *ProposalRef     `json:"proposal_by_slashing_request_id,omitempty"`
	ListProposals               *ListProposals   `json:"list_proposals,omitempty"`
	Vote                        *VoteQuery       `json:"vote,omitempty"`
	VoteBySlashingRequestID     *VoteByRequestID `json:"vote_by_slashing_request_id,omitempty"`
	ListVotes                   *ListVotes       `json:"list_votes,omitempty"`
	Voter                       *VoterQuery      `json:"voter,omitempty"`
	ListVoters                  *ListVoters      `json:"list_voters,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.Threshold != nil, m.Proposal != nil, m.ProposalBySlashingRequestID != nil,
		m.ListProposals != nil, m.Vote != nil, m.VoteBySlashingRequestID != nil, m.ListVotes != nil,
		m.Voter != nil, m.ListVoters != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type ThresholdQuery struct {
	Height *int64 `json:"height"`
}

type ProposalQuery struct {
	ProposalID uint64 `json:"proposal_id"`
}

type ListProposals struct {
	Limit      *int64  `json:"limit"`
	StartAfter *uint64 `json:"start_after"`
}

type VoteQuery struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
}

type VoteByRequestID struct {
	SlashingRequestID string `json:"slashing_request_id"`
	Voter             string `json:"voter"`
}

type ListVotes struct {
	ProposalID uint64  `json:"proposal_id"`
	Limit      *int64  `json:"limit"`
	StartAfter *string `json:"start_after"`
}

type VoterQuery struct {
	Address string `json:"address"`
	Height  *int64 `json:"height"`
}

type ListVoters struct {
	Limit      *int64  `json:"limit"`
	StartAfter *string `json:"start_after"`
}
