package delegationmanager

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/types"
)

// WithdrawalRoot is the hex sha256 of the length-prefixed withdrawal fields.
func WithdrawalRoot(w Withdrawal) string {
	h := sha256.New()
	writeField(h, []byte(w.Staker))
	writeField(h, []byte(w.DelegatedTo))
	writeField(h, []byte(w.Withdrawer))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], w.Nonce)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(w.StartBlock))
	h.Write(buf[:])
	binary.BigEndian.PutUint32(buf[:4], uint32(len(w.Strategies)))
	h.Write(buf[:4])
	for i, strategy := range w.Strategies {
		writeField(h, []byte(strategy))
		if i < len(w.Shares) {
			writeField(h, []byte(w.Shares[i].String()))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (d *DelegationManager) queueWithdrawals(env types.Env, staker string, params []QueuedWithdrawalParams) (*types.Response, error) {
	if len(params) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "no withdrawals to queue")
	}
	operator, _, err := d.delegatedTo.MayLoad(staker)
	if err != nil {
		return nil, err
	}

	res := types.NewResponse()
	for _, p := range params {
		if len(p.Strategies) == 0 || len(p.Strategies) != len(p.Shares) {
			return nil, errorsmod.Wrap(types.ErrInvalidInput, "strategies and shares must have the same non-zero length")
		}
		if p.Withdrawer != staker {
			return nil, errorsmod.Wrap(types.ErrUnauthorized, "withdrawer must be the staker")
		}
		root, events, err := d.removeSharesAndQueue(env, staker, operator, p.Withdrawer, p.Strategies, p.Shares)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			res.AddEvent(e)
		}
		res.AddAttribute("withdrawal_root", root)
	}
	return res, nil
}

// removeSharesAndQueue takes shares out of the operator's aggregate and of the
// strategies, and records the withdrawal root. operator is empty for stakers
// that are not delegated.
func (d *DelegationManager) removeSharesAndQueue(env types.Env, staker, operator, withdrawer string, strategies []string, shares []num.Uint128) (string, []types.Event, error) {
	var events []types.Event
	for i, strategy := range strategies {
		if shares[i].IsZero() {
			return "", nil, errorsmod.Wrapf(types.ErrZero, "zero shares for strategy %s", strategy)
		}
		if operator != "" {
			event, err := d.adjustOperatorShares(operator, staker, strategy, shares[i], false)
			if err != nil {
				return "", nil, err
			}
			events = append(events, event)
		}
		if err := d.strategyManager.RemoveShares(d.address, staker, strategy, shares[i]); err != nil {
			return "", nil, err
		}
	}

	nonce, _, err := d.cumulativeWithdrawals.MayLoad(staker)
	if err != nil {
		return "", nil, err
	}
	if err := d.cumulativeWithdrawals.Save(staker, nonce+1); err != nil {
		return "", nil, err
	}

	w := Withdrawal{
		DelegatedTo: operator,
		Nonce:       nonce,
		Shares:      shares,
		Staker:      staker,
		StartBlock:  env.Block.Height,
		Strategies:  strategies,
		Withdrawer:  withdrawer,
	}
	root := WithdrawalRoot(w)
	if err := d.pendingWithdrawals.Save(root, true); err != nil {
		return "", nil, err
	}
	events = append(events, types.NewEvent("WithdrawalQueued").
		AddAttribute("withdrawal_root", root).
		AddAttribute("staker", staker).
		AddAttribute("withdrawer", withdrawer).
		AddAttribute("delegated_to", operator).
		AddAttribute("nonce", strconv.FormatUint(nonce, 10)).
		AddAttribute("start_block", strconv.FormatInt(env.Block.Height, 10)))
	return root, events, nil
}

func (d *DelegationManager) completeQueuedWithdrawal(env types.Env, sender string, msg CompleteQueuedWithdrawal) (*types.Response, error) {
	w := msg.Withdrawal
	if len(w.Strategies) != len(w.Shares) {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "strategies and shares must have the same length")
	}
	root := WithdrawalRoot(w)
	pending, err := d.pendingWithdrawals.Has(root)
	if err != nil {
		return nil, err
	}
	if !pending {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "withdrawal %s is not pending", root)
	}
	if sender != w.Withdrawer {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the withdrawer can complete a withdrawal")
	}

	delays, err := d.WithdrawalDelays(w.Strategies)
	if err != nil {
		return nil, err
	}
	for i, delay := range delays {
		if env.Block.Height < w.StartBlock+delay {
			return nil, errorsmod.Wrapf(types.ErrLocked, "strategy %s unlocks at block %d", w.Strategies[i], w.StartBlock+delay)
		}
	}

	if err := d.pendingWithdrawals.Remove(root); err != nil {
		return nil, err
	}

	res := types.NewResponse().AddEvent(types.NewEvent("WithdrawalCompleted").
		AddAttribute("withdrawal_root", root).
		AddAttribute("receive_as_tokens", strconv.FormatBool(msg.ReceiveAsTokens)))

	operator, delegated, err := d.delegatedTo.MayLoad(w.Withdrawer)
	if err != nil {
		return nil, err
	}
	for i, strategy := range w.Strategies {
		if msg.ReceiveAsTokens {
			assets, err := d.strategyManager.WithdrawSharesAsTokens(d.address, w.Withdrawer, strategy, w.Shares[i])
			if err != nil {
				return nil, err
			}
			res.AddAttribute("assets", assets.String())
			continue
		}
		if err := d.strategyManager.AddShares(d.address, w.Withdrawer, strategy, w.Shares[i]); err != nil {
			return nil, err
		}
		if delegated {
			event, err := d.adjustOperatorShares(operator, w.Withdrawer, strategy, w.Shares[i], true)
			if err != nil {
				return nil, err
			}
			res.AddEvent(event)
		}
	}
	return res, nil
}

// WithdrawalDelays returns, per strategy, the blocks a withdrawal must wait:
// the larger of the global minimum and the strategy's own delay.
func (d *DelegationManager) WithdrawalDelays(strategies []string) ([]int64, error) {
	minDelay, _, err := d.minWithdrawalDelay.MayLoad()
	if err != nil {
		return nil, err
	}
	delays := make([]int64, 0, len(strategies))
	for _, strategy := range strategies {
		delay, _, err := d.strategyWithdrawalDelay.MayLoad(strategy)
		if err != nil {
			return nil, err
		}
		delays = append(delays, max(minDelay, delay))
	}
	return delays, nil
}

func (d *DelegationManager) setMinWithdrawalDelay(blocks int64) error {
	if blocks < 0 || blocks > MaxWithdrawalDelayBlocks {
		return errorsmod.Wrapf(types.ErrInvalidInput, "min_withdrawal_delay_blocks cannot exceed %d", MaxWithdrawalDelayBlocks)
	}
	return d.minWithdrawalDelay.Save(blocks)
}

func (d *DelegationManager) setStrategyWithdrawalDelay(strategies []string, blocks []int64) error {
	if len(strategies) != len(blocks) {
		return errorsmod.Wrap(types.ErrInvalidInput, "strategies and withdrawal_delay_blocks must have the same length")
	}
	for i, strategy := range strategies {
		if blocks[i] < 0 || blocks[i] > MaxWithdrawalDelayBlocks {
			return errorsmod.Wrapf(types.ErrInvalidInput, "withdrawal_delay_blocks cannot exceed %d", MaxWithdrawalDelayBlocks)
		}
		if err := d.strategyWithdrawalDelay.Save(strategy, blocks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *DelegationManager) ownerSetMinWithdrawalDelay(sender string, blocks int64) (*types.Response, error) {
	if err := d.ownership.AssertOwner(sender); err != nil {
		return nil, err
	}
	prev, _, err := d.minWithdrawalDelay.MayLoad()
	if err != nil {
		return nil, err
	}
	if err := d.setMinWithdrawalDelay(blocks); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("MinWithdrawalDelayBlocksSet").
		AddAttribute("prev_value", strconv.FormatInt(prev, 10)).
		AddAttribute("new_value", strconv.FormatInt(blocks, 10))), nil
}

func (d *DelegationManager) ownerSetStrategyWithdrawalDelay(sender string, strategies []string, blocks []int64) (*types.Response, error) {
	if err := d.ownership.AssertOwner(sender); err != nil {
		return nil, err
	}
	if err := d.setStrategyWithdrawalDelay(strategies, blocks); err != nil {
		return nil, err
	}
	res := types.NewResponse()
	for i, strategy := range strategies {
		res.AddEvent(types.NewEvent("StrategyWithdrawalDelayBlocksSet").
			AddAttribute("strategy", strategy).
			AddAttribute("new_value", strconv.FormatInt(blocks[i], 10)))
	}
	return res, nil
}
