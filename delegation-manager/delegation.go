// Package delegationmanager binds stakers to operators and keeps the
// aggregate shares delegated to each operator per strategy. It also owns
// the delegation-layer withdrawal queue: shares leave their strategy when a
// withdrawal is queued and come back, as tokens or shares, after a delay
// counted in blocks.
package delegationmanager

import (
	"encoding/base64"
	"strconv"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

const (
	// 180 days at 12 second blocks.
	MaxStakerOptOutWindowBlocks int64 = 180 * 24 * 60 * 60 / 12
	// 30 days at 12 second blocks.
	MaxWithdrawalDelayBlocks int64 = 30 * 24 * 60 * 60 / 12
)

type Pauser interface {
	AssertCanExecute(contract, sender, method string) error
}

// StrategyManager moves staker shares in and out of strategies. Every
// mutating call passes the delegation manager address as caller.
type StrategyManager interface {
	Address() string
	IsStrategy(strategy string) (bool, error)
	GetDeposits(staker string) ([]string, []num.Uint128, error)
	RemoveShares(caller, staker, strategy string, shares num.Uint128) error
	AddShares(caller, staker, strategy string, shares num.Uint128) error
	WithdrawSharesAsTokens(caller, recipient, strategy string, shares num.Uint128) (num.Uint128, error)
}

type DelegationManager struct {
	address         string
	pauser          Pauser
	strategyManager StrategyManager
	ownership       ownership.Ownership

	operators               store.Map[OperatorDetails]
	delegatedTo             store.Map[string]
	operatorShares          store.Map[num.Uint128]
	spentSalts              store.Map[bool]
	minWithdrawalDelay      store.Item[int64]
	strategyWithdrawalDelay store.Map[int64]
	pendingWithdrawals      store.Map[bool]
	cumulativeWithdrawals   store.Map[uint64]
}

func New(s store.KVStore, address string, pauser Pauser, strategyManager StrategyManager) *DelegationManager {
	return &DelegationManager{
		address:                 address,
		pauser:                  pauser,
		strategyManager:         strategyManager,
		ownership:               ownership.New(s),
		operators:               store.NewMap[OperatorDetails](s, "operator_details"),
		delegatedTo:             store.NewMap[string](s, "delegated_to"),
		operatorShares:          store.NewMap[num.Uint128](s, "operator_shares"),
		spentSalts:              store.NewMap[bool](s, "operator_salt_spent"),
		minWithdrawalDelay:      store.NewItem[int64](s, "min_withdrawal_delay_blocks"),
		strategyWithdrawalDelay: store.NewMap[int64](s, "strategy_withdrawal_delay_blocks"),
		pendingWithdrawals:      store.NewMap[bool](s, "pending_withdrawals"),
		cumulativeWithdrawals:   store.NewMap[uint64](s, "cumulative_withdrawals_queued"),
	}
}

func (d *DelegationManager) Address() string {
	return d.address
}

func (d *DelegationManager) Instantiate(msg InstantiateMsg) error {
	if err := d.ownership.Init(msg.InitialOwner); err != nil {
		return err
	}
	if err := d.setMinWithdrawalDelay(msg.MinWithdrawalDelayBlocks); err != nil {
		return err
	}
	return d.setStrategyWithdrawalDelay(msg.Strategies, msg.WithdrawalDelayBlocks)
}

func (d *DelegationManager) Execute(env types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := d.pauser.AssertCanExecute(d.address, info.Sender, msg.Method()); err != nil {
		return nil, err
	}

	switch {
	case msg.RegisterAsOperator != nil:
		return d.registerAsOperator(info.Sender, *msg.RegisterAsOperator)
	case msg.ModifyOperatorDetails != nil:
		return d.modifyOperatorDetails(info.Sender, msg.ModifyOperatorDetails.NewOperatorDetails)
	case msg.UpdateOperatorMetadataURI != nil:
		return d.updateOperatorMetadataURI(info.Sender, msg.UpdateOperatorMetadataURI.MetadataURI)
	case msg.DelegateTo != nil:
		return d.delegateTo(env, info.Sender, *msg.DelegateTo)
	case msg.Undelegate != nil:
		return d.undelegate(env, info.Sender, msg.Undelegate.Staker)
	case msg.QueueWithdrawals != nil:
		return d.queueWithdrawals(env, info.Sender, msg.QueueWithdrawals.QueuedWithdrawalParams)
	case msg.CompleteQueuedWithdrawal != nil:
		return d.completeQueuedWithdrawal(env, info.Sender, *msg.CompleteQueuedWithdrawal)
	case msg.IncreaseDelegatedShares != nil:
		m := msg.IncreaseDelegatedShares
		return d.sharesResponse(info.Sender, m.Staker, m.Strategy, m.Shares, true)
	case msg.DecreaseDelegatedShares != nil:
		m := msg.DecreaseDelegatedShares
		return d.sharesResponse(info.Sender, m.Staker, m.Strategy, m.Shares, false)
	case msg.SetMinWithdrawalDelayBlocks != nil:
		return d.ownerSetMinWithdrawalDelay(info.Sender, msg.SetMinWithdrawalDelayBlocks.NewMinWithdrawalDelayBlocks)
	case msg.SetStrategyWithdrawalDelayBlocks != nil:
		m := msg.SetStrategyWithdrawalDelayBlocks
		return d.ownerSetStrategyWithdrawalDelay(info.Sender, m.Strategies, m.WithdrawalDelayBlocks)
	case msg.TransferOwnership != nil:
		return d.ownership.Transfer(info.Sender, *msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return d.ownership.Accept(info.Sender)
	case msg.CancelOwnershipTransfer != nil:
		return d.ownership.Cancel(info.Sender)
	}
	return nil, types.ErrNoVariant
}

func validateDetails(details OperatorDetails) error {
	if details.StakerOptOutWindowBlocks < 0 || details.StakerOptOutWindowBlocks > MaxStakerOptOutWindowBlocks {
		return errorsmod.Wrapf(types.ErrInvalidInput, "staker_opt_out_window_blocks cannot exceed %d", MaxStakerOptOutWindowBlocks)
	}
	if details.DelegationApprover != "" {
		return types.ValidateAddress(details.DelegationApprover)
	}
	return nil
}

func (d *DelegationManager) registerAsOperator(sender string, msg RegisterAsOperator) (*types.Response, error) {
	if err := validateDetails(msg.OperatorDetails); err != nil {
		return nil, err
	}
	if _, delegated, err := d.delegatedTo.MayLoad(sender); err != nil {
		return nil, err
	} else if delegated {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "%s is already delegated", sender)
	}
	if err := d.operators.Save(sender, msg.OperatorDetails); err != nil {
		return nil, err
	}

	res := types.NewResponse().
		AddEvent(operatorDetailsEvent("OperatorRegistered", sender, msg.OperatorDetails)).
		AddEvent(types.NewEvent("OperatorMetadataURIUpdated").
			AddAttribute("operator", sender).
			AddAttribute("metadata_uri", msg.MetadataURI))

	// operators are delegated to themselves
	events, err := d.delegate(sender, sender)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		res.AddEvent(e)
	}
	return res, nil
}

func operatorDetailsEvent(eventType, operator string, details OperatorDetails) types.Event {
	return types.NewEvent(eventType).
		AddAttribute("operator", operator).
		AddAttribute("delegation_approver", details.DelegationApprover).
		AddAttribute("staker_opt_out_window_blocks", strconv.FormatInt(details.StakerOptOutWindowBlocks, 10))
}

func (d *DelegationManager) assertOperator(addr string) (OperatorDetails, error) {
	details, ok, err := d.operators.MayLoad(addr)
	if err != nil {
		return OperatorDetails{}, err
	}
	if !ok {
		return OperatorDetails{}, errorsmod.Wrapf(types.ErrNotFound, "%s is not a registered operator", addr)
	}
	return details, nil
}

func (d *DelegationManager) modifyOperatorDetails(sender string, details OperatorDetails) (*types.Response, error) {
	current, err := d.assertOperator(sender)
	if err != nil {
		return nil, err
	}
	if err := validateDetails(details); err != nil {
		return nil, err
	}
	if details.StakerOptOutWindowBlocks < current.StakerOptOutWindowBlocks {
		return nil, errorsmod.Wrapf(types.ErrCannotBeDecreased, "staker_opt_out_window_blocks %d is below %d",
			details.StakerOptOutWindowBlocks, current.StakerOptOutWindowBlocks)
	}
	if err := d.operators.Save(sender, details); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(operatorDetailsEvent("OperatorDetailsModified", sender, details)), nil
}

func (d *DelegationManager) updateOperatorMetadataURI(sender, uri string) (*types.Response, error) {
	if _, err := d.assertOperator(sender); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("OperatorMetadataURIUpdated").
		AddAttribute("operator", sender).
		AddAttribute("metadata_uri", uri)), nil
}

func (d *DelegationManager) delegateTo(env types.Env, staker string, msg DelegateTo) (*types.Response, error) {
	if _, delegated, err := d.delegatedTo.MayLoad(staker); err != nil {
		return nil, err
	} else if delegated {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "%s is already delegated", staker)
	}
	details, err := d.assertOperator(msg.Operator)
	if err != nil {
		return nil, err
	}

	approver := details.DelegationApprover
	if approver != "" && staker != approver && staker != msg.Operator {
		if err := d.verifyApproval(env, staker, approver, msg); err != nil {
			return nil, err
		}
	}

	events, err := d.delegate(staker, msg.Operator)
	if err != nil {
		return nil, err
	}
	res := types.NewResponse()
	for _, e := range events {
		res.AddEvent(e)
	}
	return res, nil
}

// verifyApproval checks the approver signature and spends its salt.
func (d *DelegationManager) verifyApproval(env types.Env, staker, approver string, msg DelegateTo) error {
	sig := msg.ApproverSignatureAndExpiry
	if sig == nil {
		return errorsmod.Wrap(types.ErrInvalidSignature, "approver signature is required")
	}
	if sig.Expiry < env.Block.Time.Unix() {
		return errorsmod.Wrap(types.ErrExpired, "approver signature expired")
	}

	saltKey := store.Key(approver, msg.ApproverSalt)
	spent, err := d.spentSalts.Has(saltKey)
	if err != nil {
		return err
	}
	if spent {
		return types.ErrSaltSpent
	}

	pubKey, err := base64.StdEncoding.DecodeString(msg.ApproverPublicKey)
	if err != nil {
		return errorsmod.Wrapf(types.ErrInvalidInput, "approver public key: %v", err)
	}
	derived, err := types.PubKeyToAddress(pubKey)
	if err != nil {
		return err
	}
	if derived != approver {
		return errorsmod.Wrap(types.ErrInvalidSignature, "public key does not match the delegation approver")
	}

	digest, err := ApprovalDigest(ApproverDigestHashParams{
		Approver:          approver,
		ApproverPublicKey: msg.ApproverPublicKey,
		ApproverSalt:      msg.ApproverSalt,
		ContractAddr:      d.address,
		Expiry:            sig.Expiry,
		Operator:          msg.Operator,
		Staker:            staker,
	})
	if err != nil {
		return err
	}
	if err := VerifySignature(pubKey, digest, sig.Signature); err != nil {
		return err
	}
	return d.spentSalts.Save(saltKey, true)
}

// delegate binds staker to operator and moves every deposit of the staker
// into the operator's aggregate.
func (d *DelegationManager) delegate(staker, operator string) ([]types.Event, error) {
	if err := d.delegatedTo.Save(staker, operator); err != nil {
		return nil, err
	}
	events := []types.Event{types.NewEvent("StakerDelegated").
		AddAttribute("staker", staker).
		AddAttribute("operator", operator)}

	strategies, shares, err := d.strategyManager.GetDeposits(staker)
	if err != nil {
		return nil, err
	}
	for i, strategy := range strategies {
		event, err := d.adjustOperatorShares(operator, staker, strategy, shares[i], true)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (d *DelegationManager) adjustOperatorShares(operator, staker, strategy string, shares num.Uint128, increase bool) (types.Event, error) {
	key := store.Key(operator, strategy)
	current, _, err := d.operatorShares.MayLoad(key)
	if err != nil {
		return types.Event{}, err
	}
	eventType := "OperatorSharesIncreased"
	var next num.Uint128
	if increase {
		next, err = current.CheckedAdd(shares)
	} else {
		eventType = "OperatorSharesDecreased"
		next, err = current.CheckedSub(shares)
	}
	if err != nil {
		return types.Event{}, err
	}
	if err := d.operatorShares.Save(key, next); err != nil {
		return types.Event{}, err
	}
	return types.NewEvent(eventType).
		AddAttribute("operator", operator).
		AddAttribute("staker", staker).
		AddAttribute("strategy", strategy).
		AddAttribute("shares", shares.String()), nil
}

func (d *DelegationManager) undelegate(env types.Env, sender, staker string) (*types.Response, error) {
	operator, delegated, err := d.delegatedTo.MayLoad(staker)
	if err != nil {
		return nil, err
	}
	if !delegated {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "%s is not delegated", staker)
	}
	if isOperator, err := d.operators.Has(staker); err != nil {
		return nil, err
	} else if isOperator {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "operators cannot be undelegated")
	}
	details, err := d.assertOperator(operator)
	if err != nil {
		return nil, err
	}
	if sender != staker && sender != operator && (details.DelegationApprover == "" || sender != details.DelegationApprover) {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the staker, its operator or the approver can undelegate")
	}

	res := types.NewResponse()
	if sender != staker {
		res.AddEvent(types.NewEvent("StakerForceUndelegated").
			AddAttribute("staker", staker).
			AddAttribute("operator", operator))
	}
	res.AddEvent(types.NewEvent("StakerUndelegated").
		AddAttribute("staker", staker).
		AddAttribute("operator", operator))

	strategies, shares, err := d.strategyManager.GetDeposits(staker)
	if err != nil {
		return nil, err
	}
	if len(strategies) > 0 {
		root, events, err := d.removeSharesAndQueue(env, staker, operator, staker, strategies, shares)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			res.AddEvent(e)
		}
		res.AddAttribute("withdrawal_root", root)
	}
	if err := d.delegatedTo.Remove(staker); err != nil {
		return nil, err
	}
	return res, nil
}

// assertStrategyCaller accepts the strategy manager, or a strategy reporting
// changes of its own shares.
func (d *DelegationManager) assertStrategyCaller(caller, strategy string) error {
	if caller == d.strategyManager.Address() {
		return nil
	}
	if caller == strategy {
		ok, err := d.strategyManager.IsStrategy(strategy)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return errorsmod.Wrapf(types.ErrUnauthorized, "%s cannot change delegated shares of %s", caller, strategy)
}

func (d *DelegationManager) sharesResponse(caller, staker, strategy string, shares num.Uint128, increase bool) (*types.Response, error) {
	event, err := d.changeDelegatedShares(caller, staker, strategy, shares, increase)
	if err != nil {
		return nil, err
	}
	res := types.NewResponse()
	if event != nil {
		res.AddEvent(*event)
	}
	return res, nil
}

// changeDelegatedShares updates the aggregate of the staker's operator. It is
// a no-op for stakers that are not delegated.
func (d *DelegationManager) changeDelegatedShares(caller, staker, strategy string, shares num.Uint128, increase bool) (*types.Event, error) {
	if err := d.assertStrategyCaller(caller, strategy); err != nil {
		return nil, err
	}
	operator, delegated, err := d.delegatedTo.MayLoad(staker)
	if err != nil || !delegated {
		return nil, err
	}
	event, err := d.adjustOperatorShares(operator, staker, strategy, shares, increase)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// IncreaseDelegatedShares is the hook called by vaults on deposit.
func (d *DelegationManager) IncreaseDelegatedShares(caller, staker, strategy string, shares num.Uint128) error {
	_, err := d.changeDelegatedShares(caller, staker, strategy, shares, true)
	return err
}

// DecreaseDelegatedShares is the hook called by vaults on withdraw and queue.
func (d *DelegationManager) DecreaseDelegatedShares(caller, staker, strategy string, shares num.Uint128) error {
	_, err := d.changeDelegatedShares(caller, staker, strategy, shares, false)
	return err
}

func (d *DelegationManager) OperatorShares(operator, strategy string) (num.Uint128, error) {
	shares, _, err := d.operatorShares.MayLoad(store.Key(operator, strategy))
	return shares, err
}

func (d *DelegationManager) DelegatedTo(staker string) (string, bool, error) {
	return d.delegatedTo.MayLoad(staker)
}

func (d *DelegationManager) IsOperator(addr string) (bool, error) {
	return d.operators.Has(addr)
}

func (d *DelegationManager) OperatorDetails(operator string) (OperatorDetails, error) {
	return d.assertOperator(operator)
}
