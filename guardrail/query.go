package guardrail

import (
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

func limitOf(limit *int64) int {
	if limit == nil || *limit <= 0 || *limit > maxListLimit {
		return maxListLimit
	}
	return int(*limit)
}

func (g *Guardrail) Query(env types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case msg.Threshold != nil:
		total, err := g.TotalWeight(msg.Threshold.Height)
		if err != nil {
			return nil, err
		}
		pct, err := g.percentage.Load()
		return ThresholdResponse{Percentage: pct, TotalWeight: total}, err
	case msg.Proposal != nil:
		p, ok, err := g.proposals.MayLoad(proposalKey(msg.Proposal.ProposalID))
		if err != nil || !ok {
			return ProposalResponse(nil), err
		}
		p.Status = p.CurrentStatus(env.Block.Time)
		return ProposalResponse(&p), nil
	case msg.ProposalBySlashingRequestID != nil:
		id, ok, err := g.byRequest.MayLoad(msg.ProposalBySlashingRequestID.SlashingRequestID)
		if err != nil || !ok {
			return ProposalResponse(nil), err
		}
		return g.Query(env, QueryMsg{Proposal: &ProposalQuery{ProposalID: id}})
	case msg.ListProposals != nil:
		var startAfter string
		if msg.ListProposals.StartAfter != nil {
			startAfter = proposalKey(*msg.ListProposals.StartAfter)
		}
		entries, err := g.proposals.Entries("", startAfter, limitOf(msg.ListProposals.Limit))
		if err != nil {
			return nil, err
		}
		proposals := make([]Proposal, 0, len(entries))
		for _, e := range entries {
			p := e.Value
			p.Status = p.CurrentStatus(env.Block.Time)
			proposals = append(proposals, p)
		}
		return ProposalListResponse{Proposals: proposals}, nil
	case msg.Vote != nil:
		return g.voteOf(msg.Vote.ProposalID, msg.Vote.Voter)
	case msg.VoteBySlashingRequestID != nil:
		id, ok, err := g.byRequest.MayLoad(msg.VoteBySlashingRequestID.SlashingRequestID)
		if err != nil || !ok {
			return VoteResponse(nil), err
		}
		return g.voteOf(id, msg.VoteBySlashingRequestID.Voter)
	case msg.ListVotes != nil:
		q := msg.ListVotes
		prefix := store.KeyPrefix(proposalKey(q.ProposalID))
		var startAfter string
		if q.StartAfter != nil {
			startAfter = store.Key(proposalKey(q.ProposalID), *q.StartAfter)
		}
		entries, err := g.ballots.Entries(prefix, startAfter, limitOf(q.Limit))
		if err != nil {
			return nil, err
		}
		votes := make([]VoteInfo, 0, len(entries))
		for _, e := range entries {
			votes = append(votes, e.Value)
		}
		return VoteListResponse{Votes: votes}, nil
	case msg.Voter != nil:
		var (
			w   uint64
			ok  bool
			err error
		)
		if msg.Voter.Height == nil {
			w, ok, err = g.members.MayLoad(msg.Voter.Address)
		} else {
			w, ok, err = g.members.MayLoadAt(msg.Voter.Address, *msg.Voter.Height)
		}
		if err != nil || !ok {
			return VoterResponse{}, err
		}
		return VoterResponse{Weight: &w}, nil
	case msg.ListVoters != nil:
		var startAfter string
		if msg.ListVoters.StartAfter != nil {
			startAfter = *msg.ListVoters.StartAfter
		}
		entries, err := g.members.Entries("", startAfter, limitOf(msg.ListVoters.Limit))
		if err != nil {
			return nil, err
		}
		voters := make([]Member, 0, len(entries))
		for _, e := range entries {
			voters = append(voters, Member{Addr: e.Key, Weight: e.Value})
		}
		return VoterListResponse{Voters: voters}, nil
	}
	return nil, types.ErrNoVariant
}

func (g *Guardrail) voteOf(proposalID uint64, voter string) (VoteResponse, error) {
	v, ok, err := g.ballots.MayLoad(store.Key(proposalKey(proposalID), voter))
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}
