package guardrail

import (
	"encoding/json"
	"math/big"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/shopspring/decimal"

	"github.com/satlayer/satlayer-restaking/library/types"
)

type Status string

const (
	Open     Status = "open"
	Passed   Status = "passed"
	Rejected Status = "rejected"
)

type Ballot string

const (
	Yes     Ballot = "yes"
	No      Ballot = "no"
	Abstain Ballot = "abstain"
)

func (b *Ballot) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Ballot(s) {
	case Yes, No, Abstain:
		*b = Ballot(s)
		return nil
	}
	return errorsmod.Wrapf(types.ErrInvalidInput, "unknown vote %q", s)
}

type Votes struct {
	Yes     uint64 `json:"yes"`
	No      uint64 `json:"no"`
	Abstain uint64 `json:"abstain"`
}

func (v Votes) total() uint64 {
	return v.Yes + v.No + v.Abstain
}

func (v *Votes) add(b Ballot, weight uint64) {
	switch b {
	case Yes:
		v.Yes += weight
	case No:
		v.No += weight
	case Abstain:
		v.Abstain += weight
	}
}

type Proposal struct {
	ID                uint64 `json:"id"`
	SlashingRequestID string `json:"slashing_request_id"`
	Proposer          string `json:"proposer"`
	Reason            string `json:"reason"`
	// Weights are read as of this height.
	StartHeight int64 `json:"start_height"`
	// Unix seconds, the expiry of the slashing request.
	Expires     int64  `json:"expires"`
	Status      Status `json:"status"`
	TotalWeight uint64 `json:"total_weight"`
	Percentage  string `json:"percentage"`
	Votes       Votes  `json:"votes"`
}

type VoteInfo struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	Vote       Ballot `json:"vote"`
	Weight     uint64 `json:"weight"`
}

// RequiredWeight is ceil(total_weight × percentage).
func RequiredWeight(total uint64, percentage decimal.Decimal) uint64 {
	w := decimal.NewFromBigInt(new(big.Int).SetUint64(total), 0)
	return w.Mul(percentage).Ceil().BigInt().Uint64()
}

func parsePercentage(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errorsmod.Wrapf(types.ErrInvalidInput, "threshold %q: %v", s, err)
	}
	if !p.IsPositive() || p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, errorsmod.Wrapf(types.ErrInvalidInput, "threshold %s must be in (0, 1]", s)
	}
	return p, nil
}

func (p Proposal) required() uint64 {
	pct, err := decimal.NewFromString(p.Percentage)
	if err != nil {
		return p.TotalWeight
	}
	return RequiredWeight(p.TotalWeight, pct)
}

func (p Proposal) expired(now time.Time) bool {
	return now.Unix() >= p.Expires
}

// CurrentStatus is the stored status, with an open proposal past its expiry
// reported as rejected.
func (p Proposal) CurrentStatus(now time.Time) Status {
	if p.Status == Open && p.expired(now) {
		return Rejected
	}
	return p.Status
}

// tally moves an open proposal to passed once yes meets the required weight,
// or to rejected once the weight that has not voted cannot make up the
// difference.
func (p *Proposal) tally() {
	if p.Status != Open {
		return
	}
	required := p.required()
	if p.Votes.Yes >= required {
		p.Status = Passed
		return
	}
	var remaining uint64
	if cast := p.Votes.total(); cast < p.TotalWeight {
		remaining = p.TotalWeight - cast
	}
	if p.Votes.Yes+remaining < required {
		p.Status = Rejected
	}
}
