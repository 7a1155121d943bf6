// Package vault holds a single bank denom and issues shares against it.
//
// Shares are converted with virtual offsets (see AssetsToShares). Total
// assets are always the live bank balance of the vault, never cached, so a
// slash or a donation moves the exchange rate for every staker at once.
package vault

import (
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

type Bank interface {
	Balance(denom, address string) (num.Uint128, error)
	Transfer(denom, from, to string, amount num.Uint128) error
	TransferFrom(denom, spender, owner, recipient string, amount num.Uint128) error
}

type Router interface {
	Address() string
	IsWhitelisted(vault string) (bool, error)
	IsValidating(operator string) (bool, error)
	WithdrawalLockPeriod() (time.Duration, error)
}

type Pauser interface {
	AssertCanExecute(contract, sender, method string) error
}

// DelegationHook is notified of every share change of a staker made through
// the vault's own entry points. The caller is the vault address.
type DelegationHook interface {
	IncreaseDelegatedShares(caller, staker, strategy string, shares num.Uint128) error
	DecreaseDelegatedShares(caller, staker, strategy string, shares num.Uint128) error
}

type Config struct {
	Address  string `json:"address"`
	Denom    string `json:"denom"`
	Operator string `json:"operator"`
}

type Vault struct {
	cfg    Config
	bank   Bank
	router Router
	pauser Pauser
	hook   DelegationHook

	totalShares store.Item[num.Uint128]
	shares      store.Map[num.Uint128]
	queue       store.Map[QueuedWithdrawalInfo]
}

func New(s store.KVStore, cfg Config, bank Bank, router Router, pauser Pauser) *Vault {
	return &Vault{
		cfg:         cfg,
		bank:        bank,
		router:      router,
		pauser:      pauser,
		totalShares: store.NewItem[num.Uint128](s, "total_shares"),
		shares:      store.NewMap[num.Uint128](s, "shares"),
		queue:       store.NewMap[QueuedWithdrawalInfo](s, "queued_withdrawal"),
	}
}

// SetDelegationHook wires the delegation registry. Without a hook, share
// changes are not reported.
func (v *Vault) SetDelegationHook(hook DelegationHook) {
	v.hook = hook
}

func (v *Vault) Address() string {
	return v.cfg.Address
}

func (v *Vault) Denom() string {
	return v.cfg.Denom
}

func (v *Vault) Operator() string {
	return v.cfg.Operator
}

func (v *Vault) Execute(env types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := v.pauser.AssertCanExecute(v.cfg.Address, info.Sender, msg.Method()); err != nil {
		return nil, err
	}

	switch {
	case msg.DepositFor != nil:
		return v.depositFor(info.Sender, *msg.DepositFor)
	case msg.WithdrawTo != nil:
		return v.withdrawTo(info.Sender, *msg.WithdrawTo)
	case msg.QueueWithdrawalTo != nil:
		return v.queueWithdrawalTo(env, info.Sender, *msg.QueueWithdrawalTo)
	case msg.RedeemWithdrawalTo != nil:
		return v.redeemWithdrawalTo(env, info.Sender, *msg.RedeemWithdrawalTo)
	case msg.SlashLocked != nil:
		return v.slashLocked(info.Sender, msg.SlashLocked.Amount)
	}
	return nil, types.ErrNoVariant
}

func (v *Vault) depositFor(sender string, msg RecipientAmount) (*types.Response, error) {
	if err := types.ValidateAddress(msg.Recipient); err != nil {
		return nil, err
	}
	whitelisted, err := v.router.IsWhitelisted(v.cfg.Address)
	if err != nil {
		return nil, err
	}
	if !whitelisted {
		return nil, types.ErrNotWhitelisted
	}

	newShares, err := v.ConvertToShares(msg.Amount)
	if err != nil {
		return nil, err
	}
	if newShares.IsZero() {
		return nil, types.ErrZeroNewShares
	}

	if err := v.bank.TransferFrom(v.cfg.Denom, v.cfg.Address, sender, v.cfg.Address, msg.Amount); err != nil {
		return nil, err
	}
	if err := v.addShares(msg.Recipient, newShares); err != nil {
		return nil, err
	}
	total, err := v.adjustTotalShares(newShares, true)
	if err != nil {
		return nil, err
	}
	if err := v.increaseDelegated(msg.Recipient, newShares); err != nil {
		return nil, err
	}

	return types.NewResponse().AddEvent(types.NewEvent("DepositFor").
		AddAttribute("sender", sender).
		AddAttribute("recipient", msg.Recipient).
		AddAttribute("assets", msg.Amount.String()).
		AddAttribute("shares", newShares.String()).
		AddAttribute("total_shares", total.String())), nil
}

func (v *Vault) withdrawTo(sender string, msg RecipientAmount) (*types.Response, error) {
	if err := types.ValidateAddress(msg.Recipient); err != nil {
		return nil, err
	}
	validating, err := v.router.IsValidating(v.cfg.Operator)
	if err != nil {
		return nil, err
	}
	if validating {
		return nil, errorsmod.Wrapf(types.ErrValidating, "operator %s, queue the withdrawal instead", v.cfg.Operator)
	}

	if err := v.assertShares(sender, msg.Amount); err != nil {
		return nil, err
	}
	assets, err := v.ConvertToAssets(msg.Amount)
	if err != nil {
		return nil, err
	}
	if assets.IsZero() {
		return nil, types.ErrZeroAmount
	}

	if err := v.subShares(sender, msg.Amount); err != nil {
		return nil, err
	}
	total, err := v.adjustTotalShares(msg.Amount, false)
	if err != nil {
		return nil, err
	}
	if err := v.bank.Transfer(v.cfg.Denom, v.cfg.Address, msg.Recipient, assets); err != nil {
		return nil, err
	}
	if err := v.decreaseDelegated(sender, msg.Amount); err != nil {
		return nil, err
	}

	return types.NewResponse().AddEvent(types.NewEvent("WithdrawTo").
		AddAttribute("sender", sender).
		AddAttribute("recipient", msg.Recipient).
		AddAttribute("assets", assets.String()).
		AddAttribute("shares", msg.Amount.String()).
		AddAttribute("total_shares", total.String())), nil
}

func (v *Vault) queueWithdrawalTo(env types.Env, sender string, msg RecipientAmount) (*types.Response, error) {
	if err := types.ValidateAddress(msg.Recipient); err != nil {
		return nil, err
	}
	if msg.Amount.IsZero() {
		return nil, types.ErrZeroAmount
	}
	if err := v.assertShares(sender, msg.Amount); err != nil {
		return nil, err
	}
	lockPeriod, err := v.router.WithdrawalLockPeriod()
	if err != nil {
		return nil, err
	}

	if err := v.subShares(sender, msg.Amount); err != nil {
		return nil, err
	}

	current, _, err := v.queue.MayLoad(msg.Recipient)
	if err != nil {
		return nil, err
	}
	queued, err := current.QueuedShares.CheckedAdd(msg.Amount)
	if err != nil {
		return nil, err
	}
	unlock := env.Block.Time.Add(lockPeriod)
	if current.UnlockTimestamp.After(unlock) {
		unlock = current.UnlockTimestamp
	}
	next := QueuedWithdrawalInfo{QueuedShares: queued, UnlockTimestamp: unlock}
	if err := v.queue.Save(msg.Recipient, next); err != nil {
		return nil, err
	}
	if err := v.decreaseDelegated(sender, msg.Amount); err != nil {
		return nil, err
	}

	return types.NewResponse().AddEvent(types.NewEvent("QueueWithdrawalTo").
		AddAttribute("sender", sender).
		AddAttribute("recipient", msg.Recipient).
		AddAttribute("queued_shares", msg.Amount.String()).
		AddAttribute("new_unlock_timestamp", unlock.UTC().Format(time.RFC3339)).
		AddAttribute("total_queued_shares", queued.String())), nil
}

func (v *Vault) redeemWithdrawalTo(env types.Env, sender string, msg RedeemWithdrawalTo) (*types.Response, error) {
	if sender != msg.Recipient {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the recipient can redeem its withdrawal")
	}
	withdrawal, _, err := v.queue.MayLoad(msg.Recipient)
	if err != nil {
		return nil, err
	}
	if withdrawal.QueuedShares.IsZero() {
		return nil, errorsmod.Wrap(types.ErrZero, "no queued shares to redeem")
	}
	if env.Block.Time.Before(withdrawal.UnlockTimestamp) {
		return nil, errorsmod.Wrapf(types.ErrNotYetUnlocked, "unlocks at %s", withdrawal.UnlockTimestamp.UTC().Format(time.RFC3339))
	}

	assets, err := v.ConvertToAssets(withdrawal.QueuedShares)
	if err != nil {
		return nil, err
	}
	if assets.IsZero() {
		return nil, types.ErrZeroAmount
	}
	total, err := v.adjustTotalShares(withdrawal.QueuedShares, false)
	if err != nil {
		return nil, err
	}
	if err := v.queue.Remove(msg.Recipient); err != nil {
		return nil, err
	}
	if err := v.bank.Transfer(v.cfg.Denom, v.cfg.Address, msg.Recipient, assets); err != nil {
		return nil, err
	}

	return types.NewResponse().AddEvent(types.NewEvent("RedeemWithdrawalTo").
		AddAttribute("sender", sender).
		AddAttribute("recipient", msg.Recipient).
		AddAttribute("sub_shares", withdrawal.QueuedShares.String()).
		AddAttribute("claimed_assets", assets.String()).
		AddAttribute("total_shares", total.String())), nil
}

func (v *Vault) slashLocked(sender string, amount num.Uint128) (*types.Response, error) {
	if err := v.SlashLocked(sender, amount); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("SlashLocked").
		AddAttribute("amount", amount.String()).
		AddAttribute("denom", v.cfg.Denom)), nil
}

// SlashLocked moves amount assets to the router. Shares are untouched, so the
// loss is spread over every share of the vault.
func (v *Vault) SlashLocked(caller string, amount num.Uint128) error {
	if caller != v.router.Address() {
		return errorsmod.Wrap(types.ErrUnauthorized, "only the router can move slashed assets")
	}
	if amount.IsZero() {
		return types.ErrZeroAmount
	}
	balance, err := v.TotalAssets()
	if err != nil {
		return err
	}
	if balance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficient, "vault holds %s, slash requires %s", balance, amount)
	}
	return v.bank.Transfer(v.cfg.Denom, v.cfg.Address, v.router.Address(), amount)
}

func (v *Vault) Query(env types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.Shares != nil:
		shares, err := v.SharesOf(msg.Shares.Staker)
		return SharesResponse(shares.String()), err
	case msg.Assets != nil:
		shares, err := v.SharesOf(msg.Assets.Staker)
		if err != nil {
			return nil, err
		}
		assets, err := v.ConvertToAssets(shares)
		return AssetsResponse(assets.String()), err
	case msg.ConvertToAssets != nil:
		assets, err := v.ConvertToAssets(msg.ConvertToAssets.Shares)
		return ConvertToAssetsResponse(assets.String()), err
	case msg.ConvertToShares != nil:
		shares, err := v.ConvertToShares(msg.ConvertToShares.Assets)
		return ConvertToSharesResponse(shares.String()), err
	case msg.TotalShares != nil:
		total, err := v.TotalShares()
		return TotalSharesResponse(total.String()), err
	case msg.TotalAssets != nil:
		total, err := v.TotalAssets()
		return TotalAssetsResponse(total.String()), err
	case msg.QueuedWithdrawal != nil:
		w, _, err := v.queue.MayLoad(msg.QueuedWithdrawal.Recipient)
		return QueuedWithdrawalResponse(w), err
	case msg.VaultInfo != nil:
		return v.info()
	}
	return nil, types.ErrNoVariant
}

func (v *Vault) info() (VaultInfoResponse, error) {
	whitelisted, err := v.router.IsWhitelisted(v.cfg.Address)
	if err != nil {
		return VaultInfoResponse{}, err
	}
	totalShares, err := v.TotalShares()
	if err != nil {
		return VaultInfoResponse{}, err
	}
	totalAssets, err := v.TotalAssets()
	if err != nil {
		return VaultInfoResponse{}, err
	}
	return VaultInfoResponse{
		Vault:       v.cfg.Address,
		Denom:       v.cfg.Denom,
		Operator:    v.cfg.Operator,
		Router:      v.router.Address(),
		Whitelisted: whitelisted,
		TotalAssets: totalAssets,
		TotalShares: totalShares,
	}, nil
}

func (v *Vault) TotalShares() (num.Uint128, error) {
	total, _, err := v.totalShares.MayLoad()
	return total, err
}

// TotalAssets is the live bank balance of the vault.
func (v *Vault) TotalAssets() (num.Uint128, error) {
	return v.bank.Balance(v.cfg.Denom, v.cfg.Address)
}

func (v *Vault) ConvertToShares(assets num.Uint128) (num.Uint128, error) {
	totalShares, err := v.TotalShares()
	if err != nil {
		return num.Uint128{}, err
	}
	totalAssets, err := v.TotalAssets()
	if err != nil {
		return num.Uint128{}, err
	}
	return AssetsToShares(assets, totalShares, totalAssets)
}

func (v *Vault) ConvertToAssets(shares num.Uint128) (num.Uint128, error) {
	totalShares, err := v.TotalShares()
	if err != nil {
		return num.Uint128{}, err
	}
	totalAssets, err := v.TotalAssets()
	if err != nil {
		return num.Uint128{}, err
	}
	return SharesToAssets(shares, totalShares, totalAssets)
}

// SharesOf returns the shares held by staker, excluding queued withdrawals.
func (v *Vault) SharesOf(staker string) (num.Uint128, error) {
	shares, _, err := v.shares.MayLoad(staker)
	return shares, err
}

func (v *Vault) QueuedWithdrawal(recipient string) (QueuedWithdrawalInfo, error) {
	w, _, err := v.queue.MayLoad(recipient)
	return w, err
}

func (v *Vault) assertShares(staker string, amount num.Uint128) error {
	balance, err := v.SharesOf(staker)
	if err != nil {
		return err
	}
	if balance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficient, "staker has %s shares, requested %s", balance, amount)
	}
	return nil
}

// addShares credits staker. A zero delta is a no-op.
func (v *Vault) addShares(staker string, shares num.Uint128) error {
	if shares.IsZero() {
		return nil
	}
	balance, err := v.SharesOf(staker)
	if err != nil {
		return err
	}
	next, err := balance.CheckedAdd(shares)
	if err != nil {
		return err
	}
	return v.shares.Save(staker, next)
}

// subShares debits staker and fails on underflow. A zero delta is a no-op.
func (v *Vault) subShares(staker string, shares num.Uint128) error {
	if shares.IsZero() {
		return nil
	}
	balance, err := v.SharesOf(staker)
	if err != nil {
		return err
	}
	next, err := balance.CheckedSub(shares)
	if err != nil {
		return err
	}
	return v.shares.Save(staker, next)
}

func (v *Vault) adjustTotalShares(delta num.Uint128, increase bool) (num.Uint128, error) {
	total, err := v.TotalShares()
	if err != nil {
		return num.Uint128{}, err
	}
	if increase {
		total, err = total.CheckedAdd(delta)
	} else {
		total, err = total.CheckedSub(delta)
	}
	if err != nil {
		return num.Uint128{}, err
	}
	return total, v.totalShares.Save(total)
}

func (v *Vault) increaseDelegated(staker string, shares num.Uint128) error {
	if v.hook == nil {
		return nil
	}
	return v.hook.IncreaseDelegatedShares(v.cfg.Address, staker, v.cfg.Address, shares)
}

func (v *Vault) decreaseDelegated(staker string, shares num.Uint128) error {
	if v.hook == nil {
		return nil
	}
	return v.hook.DecreaseDelegatedShares(v.cfg.Address, staker, v.cfg.Address, shares)
}
