package delegationmanager

import (
	"encoding/base64"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

func (d *DelegationManager) Query(_ types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case msg.IsDelegated != nil:
		_, ok, err := d.delegatedTo.MayLoad(msg.IsDelegated.Staker)
		return DelegatedResponse{IsDelegated: ok}, err
	case msg.DelegatedTo != nil:
		operator, _, err := d.delegatedTo.MayLoad(msg.DelegatedTo.Staker)
		return DelegatedToResponse(operator), err
	case msg.IsOperator != nil:
		ok, err := d.IsOperator(msg.IsOperator.Operator)
		return OperatorResponse{IsOperator: ok}, err
	case msg.OperatorDetails != nil:
		details, err := d.assertOperator(msg.OperatorDetails.Operator)
		return OperatorDetailsResponse{Details: details}, err
	case msg.StakerOptOutWindowBlocks != nil:
		details, err := d.assertOperator(msg.StakerOptOutWindowBlocks.Operator)
		return StakerOptOutWindowBlocksResponse{StakerOptOutWindowBlocks: details.StakerOptOutWindowBlocks}, err
	case msg.GetOperatorShares != nil:
		shares := make([]num.Uint128, 0, len(msg.GetOperatorShares.Strategies))
		for _, strategy := range msg.GetOperatorShares.Strategies {
			s, err := d.OperatorShares(msg.GetOperatorShares.Operator, strategy)
			if err != nil {
				return nil, err
			}
			shares = append(shares, s)
		}
		return OperatorSharesResponse{Shares: shares}, nil
	case msg.GetDelegatableShares != nil:
		strategies, shares, err := d.strategyManager.GetDeposits(msg.GetDelegatableShares.Staker)
		return DelegatableSharesResponse{Strategies: strategies, Shares: shares}, err
	case msg.GetWithdrawalDelay != nil:
		delays, err := d.WithdrawalDelays(msg.GetWithdrawalDelay.Strategies)
		return WithdrawalDelayResponse{WithdrawalDelays: delays}, err
	case msg.CalculateWithdrawalRoot != nil:
		return CalculateWithdrawalRootResponse{WithdrawalRoot: WithdrawalRoot(msg.CalculateWithdrawalRoot.Withdrawal)}, nil
	case msg.IsWithdrawalPending != nil:
		ok, err := d.pendingWithdrawals.Has(msg.IsWithdrawalPending.WithdrawalRoot)
		return IsWithdrawalPendingResponse(ok), err
	case msg.DelegationApprovalDigestHash != nil:
		digest, err := ApprovalDigest(msg.DelegationApprovalDigestHash.ApproverDigestHashParams)
		if err != nil {
			return nil, err
		}
		return DelegationApprovalDigestHashResponse{ApproverDelegationDigestHash: base64.StdEncoding.EncodeToString(digest)}, nil
	case msg.IsSaltSpent != nil:
		ok, err := d.spentSalts.Has(store.Key(msg.IsSaltSpent.Approver, msg.IsSaltSpent.Salt))
		return IsSaltSpentResponse(ok), err
	case msg.GetCumulativeWithdrawalsQueued != nil:
		n, _, err := d.cumulativeWithdrawals.MayLoad(msg.GetCumulativeWithdrawalsQueued.Staker)
		return CumulativeWithdrawalsQueuedResponse{CumulativeWithdrawals: n}, err
	}
	return nil, types.ErrNoVariant
}
