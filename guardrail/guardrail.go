// Package guardrail is a weighted multisig that approves slashing requests
// before they can be finalized. Member weights are snapshotted by block
// height and a proposal tallies the weights of its start height against an
// absolute percentage of the total weight.
package guardrail

import (
	"fmt"
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	slashmanager "github.com/satlayer/satlayer-restaking/slash-manager"
)

const maxListLimit = 100

const totalKey = "total"

type Pauser interface {
	AssertCanExecute(contract, sender, method string) error
}

type SlashManager interface {
	Address() string
	SlashingRequest(id string) (slashmanager.SlashingRequest, bool, error)
}

type Guardrail struct {
	address      string
	pauser       Pauser
	slashManager SlashManager
	ownership    ownership.Ownership

	members    store.SnapshotMap[uint64]
	total      store.SnapshotMap[uint64]
	percentage store.Item[string]
	nextID     store.Item[uint64]
	proposals  store.Map[Proposal]
	byRequest  store.Map[uint64]
	ballots    store.Map[VoteInfo]
}

func New(s store.KVStore, address string, pauser Pauser, slashManager SlashManager) *Guardrail {
	return &Guardrail{
		address:      address,
		pauser:       pauser,
		slashManager: slashManager,
		ownership:    ownership.New(s),
		members:      store.NewSnapshotMap[uint64](s, "members"),
		total:        store.NewSnapshotMap[uint64](s, "total_weight"),
		percentage:   store.NewItem[string](s, "threshold"),
		nextID:       store.NewItem[uint64](s, "next_proposal_id"),
		proposals:    store.NewMap[Proposal](s, "proposals"),
		byRequest:    store.NewMap[uint64](s, "proposal_by_slashing_request"),
		ballots:      store.NewMap[VoteInfo](s, "ballots"),
	}
}

func proposalKey(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func (g *Guardrail) Address() string {
	return g.address
}

func (g *Guardrail) Instantiate(env types.Env, msg InstantiateMsg) error {
	if err := g.ownership.Init(msg.Owner); err != nil {
		return err
	}
	if _, err := parsePercentage(msg.Threshold); err != nil {
		return err
	}
	if err := g.percentage.Save(msg.Threshold); err != nil {
		return err
	}
	if len(msg.Members) == 0 {
		return errorsmod.Wrap(types.ErrInvalidInput, "guardrail needs at least one member")
	}
	return g.updateMembers(env.Block.Height, msg.Members, nil)
}

func (g *Guardrail) Execute(env types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := g.pauser.AssertCanExecute(g.address, info.Sender, msg.Method()); err != nil {
		return nil, err
	}

	switch {
	case msg.Propose != nil:
		return g.propose(env, info.Sender, *msg.Propose)
	case msg.Vote != nil:
		return g.vote(env, info.Sender, msg.Vote.SlashingRequestID, msg.Vote.Vote)
	case msg.Close != nil:
		return g.close(env, msg.Close.SlashingRequestID)
	case msg.Veto != nil:
		return g.veto(env, msg.Veto.SlashingRequestID)
	case msg.UpdateMembers != nil:
		return g.ownerUpdateMembers(env, info.Sender, *msg.UpdateMembers)
	case msg.TransferOwnership != nil:
		return g.ownership.Transfer(info.Sender, *msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return g.ownership.Accept(info.Sender)
	}
	return nil, types.ErrNoVariant
}

func (g *Guardrail) weightAt(addr string, height int64) (uint64, error) {
	w, _, err := g.members.MayLoadAt(addr, height)
	return w, err
}

func (g *Guardrail) propose(env types.Env, sender string, msg Propose) (*types.Response, error) {
	weight, err := g.weightAt(sender, env.Block.Height)
	if err != nil {
		return nil, err
	}
	if weight == 0 {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not a member", sender)
	}
	if exists, err := g.byRequest.Has(msg.SlashingRequestID); err != nil {
		return nil, err
	} else if exists {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "proposal for slashing request %s", msg.SlashingRequestID)
	}
	req, ok, err := g.slashManager.SlashingRequest(msg.SlashingRequestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "slashing request %s", msg.SlashingRequestID)
	}
	if !req.Active(env.Block.Time) || req.Expired(env.Block.Time) {
		return nil, errorsmod.Wrapf(types.ErrExpired, "slashing request %s is no longer open", msg.SlashingRequestID)
	}

	total, _, err := g.total.MayLoadAt(totalKey, env.Block.Height)
	if err != nil {
		return nil, err
	}
	pct, err := g.percentage.Load()
	if err != nil {
		return nil, err
	}
	id, _, err := g.nextID.MayLoad()
	if err != nil {
		return nil, err
	}
	if err := g.nextID.Save(id + 1); err != nil {
		return nil, err
	}

	p := Proposal{
		ID:                id,
		SlashingRequestID: msg.SlashingRequestID,
		Proposer:          sender,
		Reason:            msg.Reason,
		StartHeight:       env.Block.Height,
		Expires:           req.RequestExpiry,
		Status:            Open,
		TotalWeight:       total,
		Percentage:        pct,
	}
	if err := g.byRequest.Save(msg.SlashingRequestID, id); err != nil {
		return nil, err
	}
	res := types.NewResponse().AddEvent(types.NewEvent("ProposalCreated").
		AddAttribute("proposal_id", strconv.FormatUint(id, 10)).
		AddAttribute("slashing_request_id", msg.SlashingRequestID).
		AddAttribute("proposer", sender))

	// the proposer votes yes
	if err := g.castVote(&p, sender, Yes, weight); err != nil {
		return nil, err
	}
	return res.AddEvent(voteEvent(p, sender, Yes)), nil
}

func voteEvent(p Proposal, voter string, b Ballot) types.Event {
	return types.NewEvent("ProposalVoted").
		AddAttribute("proposal_id", strconv.FormatUint(p.ID, 10)).
		AddAttribute("voter", voter).
		AddAttribute("vote", string(b)).
		AddAttribute("status", string(p.Status))
}

func (g *Guardrail) castVote(p *Proposal, voter string, b Ballot, weight uint64) error {
	p.Votes.add(b, weight)
	p.tally()
	if err := g.ballots.Save(store.Key(proposalKey(p.ID), voter), VoteInfo{
		ProposalID: p.ID,
		Voter:      voter,
		Vote:       b,
		Weight:     weight,
	}); err != nil {
		return err
	}
	return g.proposals.Save(proposalKey(p.ID), *p)
}

func (g *Guardrail) loadByRequest(slashingRequestID string) (Proposal, error) {
	id, ok, err := g.byRequest.MayLoad(slashingRequestID)
	if err != nil {
		return Proposal{}, err
	}
	if !ok {
		return Proposal{}, errorsmod.Wrapf(types.ErrNotFound, "no proposal for slashing request %s", slashingRequestID)
	}
	return g.proposals.Load(proposalKey(id))
}

func (g *Guardrail) vote(env types.Env, sender, slashingRequestID string, b Ballot) (*types.Response, error) {
	switch b {
	case Yes, No, Abstain:
	default:
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "unknown vote %q", b)
	}
	p, err := g.loadByRequest(slashingRequestID)
	if err != nil {
		return nil, err
	}
	if p.Status != Open {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "proposal is %s", p.Status)
	}
	if p.expired(env.Block.Time) {
		return nil, errorsmod.Wrap(types.ErrExpired, "proposal expired")
	}
	weight, err := g.weightAt(sender, p.StartHeight)
	if err != nil {
		return nil, err
	}
	if weight == 0 {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s had no weight at height %d", sender, p.StartHeight)
	}
	if voted, err := g.ballots.Has(store.Key(proposalKey(p.ID), sender)); err != nil {
		return nil, err
	} else if voted {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "%s already voted", sender)
	}

	if err := g.castVote(&p, sender, b, weight); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(voteEvent(p, sender, b)), nil
}

// close rejects an expired open proposal without tallying again.
func (g *Guardrail) close(env types.Env, slashingRequestID string) (*types.Response, error) {
	p, err := g.loadByRequest(slashingRequestID)
	if err != nil {
		return nil, err
	}
	if p.Status != Open {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "proposal is %s", p.Status)
	}
	if !p.expired(env.Block.Time) {
		return nil, errorsmod.Wrap(types.ErrLocked, "proposal has not expired")
	}
	p.Status = Rejected
	if err := g.proposals.Save(proposalKey(p.ID), p); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("ProposalClosed").
		AddAttribute("proposal_id", strconv.FormatUint(p.ID, 10)).
		AddAttribute("status", string(p.Status))), nil
}

// veto cancels the slashing request of a rejected proposal through a
// follow-up command. A locked request has its custody returned to the vaults.
func (g *Guardrail) veto(env types.Env, slashingRequestID string) (*types.Response, error) {
	p, err := g.loadByRequest(slashingRequestID)
	if err != nil {
		return nil, err
	}
	if p.CurrentStatus(env.Block.Time) != Rejected {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "proposal is %s", p.CurrentStatus(env.Block.Time))
	}
	sub, err := types.NewSubMsg(g.slashManager.Address(), slashmanager.ExecuteMsg{
		SlashingCancel: &slashmanager.SlashingRequestRef{SlashingRequestID: slashingRequestID},
	})
	if err != nil {
		return nil, err
	}
	return types.NewResponse().
		AddMessage(sub).
		AddEvent(types.NewEvent("ProposalVetoed").
			AddAttribute("proposal_id", strconv.FormatUint(p.ID, 10)).
			AddAttribute("slashing_request_id", slashingRequestID)), nil
}

func (g *Guardrail) updateMembers(height int64, add []Member, remove []string) error {
	total, _, err := g.total.MayLoad(totalKey)
	if err != nil {
		return err
	}
	for _, m := range add {
		if err := types.ValidateAddress(m.Addr); err != nil {
			return err
		}
		if m.Weight == 0 {
			return errorsmod.Wrapf(types.ErrZero, "weight of %s", m.Addr)
		}
		prev, _, err := g.members.MayLoad(m.Addr)
		if err != nil {
			return err
		}
		total = total - prev + m.Weight
		if err := g.members.Save(m.Addr, height, m.Weight); err != nil {
			return err
		}
	}
	for _, addr := range remove {
		prev, ok, err := g.members.MayLoad(addr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		total -= prev
		if err := g.members.Remove(addr, height); err != nil {
			return err
		}
	}
	return g.total.Save(totalKey, height, total)
}

func (g *Guardrail) ownerUpdateMembers(env types.Env, sender string, msg UpdateMembers) (*types.Response, error) {
	if err := g.ownership.AssertOwner(sender); err != nil {
		return nil, err
	}
	if err := g.updateMembers(env.Block.Height, msg.Add, msg.Remove); err != nil {
		return nil, err
	}
	total, err := g.TotalWeight(nil)
	if err != nil {
		return nil, err
	}
	e := types.NewEvent("MembersUpdated").AddAttribute("total_weight", strconv.FormatUint(total, 10))
	for _, m := range msg.Add {
		e = e.AddAttribute("add", m.Addr)
	}
	for _, addr := range msg.Remove {
		e = e.AddAttribute("remove", addr)
	}
	return types.NewResponse().AddEvent(e), nil
}

// ProposalPassed reports whether the proposal for the slashing request has
// passed. A missing proposal has not passed.
func (g *Guardrail) ProposalPassed(slashingRequestID string, at time.Time) (bool, error) {
	id, ok, err := g.byRequest.MayLoad(slashingRequestID)
	if err != nil || !ok {
		return false, err
	}
	p, err := g.proposals.Load(proposalKey(id))
	if err != nil {
		return false, err
	}
	return p.CurrentStatus(at) == Passed, nil
}

// TotalWeight returns the total weight at height, or the latest when nil.
func (g *Guardrail) TotalWeight(height *int64) (uint64, error) {
	if height == nil {
		w, _, err := g.total.MayLoad(totalKey)
		return w, err
	}
	w, _, err := g.total.MayLoadAt(totalKey, *height)
	return w, err
}
