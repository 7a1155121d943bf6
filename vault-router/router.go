// Package vaultrouter is the authority vaults consult before moving shares:
// which vaults are whitelisted for deposits, whether an operator is
// validating, and how long queued withdrawals stay locked. It also holds
// slashed assets in custody between lock and finalize, and is the strategy
// manager the delegation manager moves shares through.
package vaultrouter

import (
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

// DefaultWithdrawalLockPeriod is 7 days, in seconds.
const DefaultWithdrawalLockPeriod int64 = 7 * 24 * 60 * 60

// MaxListLimit caps a ListVaults page.
const MaxListLimit = 100

type Pauser interface {
	AssertCanExecute(contract, sender, method string) error
}

type Registry interface {
	IsOperatorActive(operator string) (bool, error)
}

type Bank interface {
	Transfer(denom, from, to string, amount num.Uint128) error
	Burn(denom, from string, amount num.Uint128) error
}

// VaultContract is the part of a vault the router drives. Every call passes
// the router address as caller.
type VaultContract interface {
	Address() string
	Denom() string
	Operator() string
	SharesOf(staker string) (num.Uint128, error)
	ConvertToAssets(shares num.Uint128) (num.Uint128, error)
	SlashLocked(caller string, amount num.Uint128) error
	AddShares(caller, staker string, shares num.Uint128) error
	RemoveShares(caller, staker string, shares num.Uint128) error
	WithdrawSharesAsTokens(caller, recipient string, shares num.Uint128) (num.Uint128, error)
}

// VaultResolver finds a deployed vault by address.
type VaultResolver func(address string) (VaultContract, bool)

// Delegation reports the aggregate shares delegated to an operator in a vault.
type Delegation interface {
	OperatorShares(operator, strategy string) (num.Uint128, error)
}

type Config struct {
	Address string `json:"address"`
	// Only the slash manager can lock and finalize custody.
	SlashManager string `json:"slash_manager"`
	// Only the delegation manager can move shares as strategy manager.
	DelegationManager string `json:"delegation_manager"`
}

type Router struct {
	cfg        Config
	pauser     Pauser
	registry   Registry
	bank       Bank
	resolve    VaultResolver
	delegation Delegation
	ownership  ownership.Ownership

	vaults     store.Map[bool]
	lockPeriod store.Item[int64]
	custody    store.Map[custodyRecord]
}

type custodyRecord struct {
	Amounts   []LockedAmount `json:"amounts"`
	Finalized bool           `json:"finalized"`
}

func New(s store.KVStore, cfg Config, pauser Pauser, registry Registry, bank Bank, resolve VaultResolver) *Router {
	return &Router{
		cfg:        cfg,
		pauser:     pauser,
		registry:   registry,
		bank:       bank,
		resolve:    resolve,
		ownership:  ownership.New(s),
		vaults:     store.NewMap[bool](s, "vaults"),
		lockPeriod: store.NewItem[int64](s, "withdrawal_lock_period"),
		custody:    store.NewMap[custodyRecord](s, "slash_locked"),
	}
}

// SetDelegation wires the delegation manager, which is constructed after
// the router.
func (r *Router) SetDelegation(d Delegation) {
	r.delegation = d
}

func (r *Router) Address() string {
	return r.cfg.Address
}

func (r *Router) Instantiate(msg InstantiateMsg) error {
	if err := r.ownership.Init(msg.Owner); err != nil {
		return err
	}
	period := DefaultWithdrawalLockPeriod
	if msg.WithdrawalLockPeriod != nil {
		period = *msg.WithdrawalLockPeriod
	}
	if period <= 0 {
		return errorsmod.Wrap(types.ErrInvalidInput, "withdrawal lock period must be positive")
	}
	return r.lockPeriod.Save(period)
}

func (r *Router) Execute(_ types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := r.pauser.AssertCanExecute(r.cfg.Address, info.Sender, msg.Method()); err != nil {
		return nil, err
	}

	switch {
	case msg.SetVault != nil:
		return r.setVault(info.Sender, *msg.SetVault)
	case msg.SetWithdrawalLockPeriod != nil:
		return r.setWithdrawalLockPeriod(info.Sender, msg.SetWithdrawalLockPeriod.Seconds)
	case msg.TransferOwnership != nil:
		return r.ownership.Transfer(info.Sender, *msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return r.ownership.Accept(info.Sender)
	}
	return nil, types.ErrNoVariant
}

func (r *Router) setVault(sender string, msg SetVault) (*types.Response, error) {
	if err := r.ownership.AssertOwner(sender); err != nil {
		return nil, err
	}
	if err := types.ValidateAddress(msg.Vault); err != nil {
		return nil, err
	}
	if _, ok := r.resolve(msg.Vault); !ok {
		return nil, errorsmod.Wrapf(types.ErrUnknownContract, "vault %s", msg.Vault)
	}
	if err := r.vaults.Save(msg.Vault, msg.Whitelisted); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("VaultUpdated").
		AddAttribute("vault", msg.Vault).
		AddAttribute("whitelisted", strconv.FormatBool(msg.Whitelisted))), nil
}

func (r *Router) setWithdrawalLockPeriod(sender string, seconds int64) (*types.Response, error) {
	if err := r.ownership.AssertOwner(sender); err != nil {
		return nil, err
	}
	if seconds <= 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "withdrawal lock period must be positive")
	}
	prev, err := r.lockPeriod.Load()
	if err != nil {
		return nil, err
	}
	if err := r.lockPeriod.Save(seconds); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("SetWithdrawalLockPeriod").
		AddAttribute("prev_value", strconv.FormatInt(prev, 10)).
		AddAttribute("new_value", strconv.FormatInt(seconds, 10))), nil
}

func (r *Router) Query(_ types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.IsWhitelisted != nil:
		ok, err := r.IsWhitelisted(msg.IsWhitelisted.Vault)
		return IsWhitelistedResponse(ok), err
	case msg.IsValidating != nil:
		ok, err := r.IsValidating(msg.IsValidating.Operator)
		return IsValidatingResponse(ok), err
	case msg.ListVaults != nil:
		startAfter := ""
		if msg.ListVaults.StartAfter != nil {
			startAfter = *msg.ListVaults.StartAfter
		}
		limit := int64(MaxListLimit)
		if msg.ListVaults.Limit != nil {
			limit = *msg.ListVaults.Limit
		}
		vaults, err := r.ListVaults(startAfter, limit)
		return VaultListResponse(vaults), err
	case msg.WithdrawalLockPeriod != nil:
		period, err := r.lockPeriod.Load()
		return WithdrawalLockPeriodResponse(period), err
	case msg.SlashLocked != nil:
		record, _, err := r.custody.MayLoad(msg.SlashLocked.SlashingRequestID)
		return SlashLockedResponse(record.Amounts), err
	}
	return nil, types.ErrNoVariant
}

func (r *Router) Owner() (string, error) {
	return r.ownership.Owner()
}

func (r *Router) IsWhitelisted(vault string) (bool, error) {
	ok, _, err := r.vaults.MayLoad(vault)
	return ok, err
}

// IsValidating reports whether the operator has at least one active service
// registration. Validating operators cannot withdraw instantly.
func (r *Router) IsValidating(operator string) (bool, error) {
	return r.registry.IsOperatorActive(operator)
}

func (r *Router) WithdrawalLockPeriod() (time.Duration, error) {
	seconds, err := r.lockPeriod.Load()
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// ListVaults pages through every vault set on the router, whitelisted or not.
// A limit outside 1..MaxListLimit is clamped.
func (r *Router) ListVaults(startAfter string, limit int64) ([]Vault, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	entries, err := r.vaults.Entries("", startAfter, int(limit))
	if err != nil {
		return nil, err
	}
	vaults := make([]Vault, 0, len(entries))
	for _, e := range entries {
		vaults = append(vaults, Vault{Vault: e.Key, Whitelisted: e.Value})
	}
	return vaults, nil
}

// eachVault visits every vault set on the router in address order.
func (r *Router) eachVault(fn func(v VaultContract) error) error {
	return r.vaults.Each("", func(addr string, _ bool) error {
		v, ok := r.resolve(addr)
		if !ok {
			return errorsmod.Wrapf(types.ErrUnknownContract, "vault %s", addr)
		}
		return fn(v)
	})
}
