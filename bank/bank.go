// Package bank is the underlying-asset ledger that vaults hold their
// deposits in. It keeps per-denom balances, allowances and supply.
package bank

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

type Bank struct {
	address    string
	minter     store.Item[string]
	balances   store.Map[num.Uint128]
	allowances store.Map[num.Uint128]
	supply     store.Map[num.Uint128]
}

func New(s store.KVStore, address string) *Bank {
	return &Bank{
		address:    address,
		minter:     store.NewItem[string](s, "minter"),
		balances:   store.NewMap[num.Uint128](s, "balances"),
		allowances: store.NewMap[num.Uint128](s, "allowances"),
		supply:     store.NewMap[num.Uint128](s, "supply"),
	}
}

func (b *Bank) Address() string {
	return b.address
}

func (b *Bank) Instantiate(msg InstantiateMsg) error {
	if err := types.ValidateAddress(msg.Minter); err != nil {
		return err
	}
	return b.minter.Save(msg.Minter)
}

func (b *Bank) Execute(env types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.Transfer != nil:
		m := msg.Transfer
		if err := types.ValidateAddress(m.Recipient); err != nil {
			return nil, err
		}
		if err := b.Transfer(m.Denom, info.Sender, m.Recipient, m.Amount); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("Transfer").
			AddAttribute("denom", m.Denom).
			AddAttribute("sender", info.Sender).
			AddAttribute("recipient", m.Recipient).
			AddAttribute("amount", m.Amount.String())), nil
	case msg.IncreaseAllowance != nil:
		m := msg.IncreaseAllowance
		if err := types.ValidateAddress(m.Spender); err != nil {
			return nil, err
		}
		if err := b.IncreaseAllowance(m.Denom, info.Sender, m.Spender, m.Amount); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("IncreaseAllowance").
			AddAttribute("denom", m.Denom).
			AddAttribute("owner", info.Sender).
			AddAttribute("spender", m.Spender).
			AddAttribute("amount", m.Amount.String())), nil
	case msg.Mint != nil:
		m := msg.Mint
		minter, err := b.minter.Load()
		if err != nil {
			return nil, err
		}
		if info.Sender != minter {
			return nil, errorsmod.Wrap(types.ErrUnauthorized, "sender is not the minter")
		}
		if err := types.ValidateAddress(m.Recipient); err != nil {
			return nil, err
		}
		if err := b.Mint(m.Denom, m.Recipient, m.Amount); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("Mint").
			AddAttribute("denom", m.Denom).
			AddAttribute("recipient", m.Recipient).
			AddAttribute("amount", m.Amount.String())), nil
	case msg.Burn != nil:
		m := msg.Burn
		if err := b.Burn(m.Denom, info.Sender, m.Amount); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(types.NewEvent("Burn").
			AddAttribute("denom", m.Denom).
			AddAttribute("sender", info.Sender).
			AddAttribute("amount", m.Amount.String())), nil
	}
	return nil, types.ErrNoVariant
}

func (b *Bank) Query(_ types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.Balance != nil:
		amount, err := b.Balance(msg.Balance.Denom, msg.Balance.Address)
		return BalanceResponse(amount.String()), err
	case msg.Allowance != nil:
		amount, err := b.Allowance(msg.Allowance.Denom, msg.Allowance.Owner, msg.Allowance.Spender)
		return AllowanceResponse(amount.String()), err
	case msg.Supply != nil:
		amount, err := b.Supply(msg.Supply.Denom)
		return SupplyResponse(amount.String()), err
	}
	return nil, types.ErrNoVariant
}

func (b *Bank) Balance(denom, address string) (num.Uint128, error) {
	amount, _, err := b.balances.MayLoad(store.Key(denom, address))
	return amount, err
}

func (b *Bank) Allowance(denom, owner, spender string) (num.Uint128, error) {
	amount, _, err := b.allowances.MayLoad(store.Key(denom, owner, spender))
	return amount, err
}

func (b *Bank) Supply(denom string) (num.Uint128, error) {
	amount, _, err := b.supply.MayLoad(denom)
	return amount, err
}

func (b *Bank) IncreaseAllowance(denom, owner, spender string, amount num.Uint128) error {
	current, err := b.Allowance(denom, owner, spender)
	if err != nil {
		return err
	}
	next, err := current.CheckedAdd(amount)
	if err != nil {
		return err
	}
	return b.allowances.Save(store.Key(denom, owner, spender), next)
}

// Transfer moves amount from one account to another.
func (b *Bank) Transfer(denom, from, to string, amount num.Uint128) error {
	if amount.IsZero() {
		return types.ErrZeroAmount
	}
	if denom == "" {
		return errorsmod.Wrap(types.ErrInvalidInput, "empty denom")
	}
	if err := b.debit(denom, from, amount); err != nil {
		return err
	}
	return b.credit(denom, to, amount)
}

// TransferFrom moves amount out of owner's account using spender's allowance.
// A spender moving its own funds needs no allowance.
func (b *Bank) TransferFrom(denom, spender, owner, recipient string, amount num.Uint128) error {
	if spender != owner {
		allowance, err := b.Allowance(denom, owner, spender)
		if err != nil {
			return err
		}
		if allowance.LT(amount) {
			return errorsmod.Wrapf(types.ErrInsufficient, "allowance %s < %s", allowance, amount)
		}
		if err := b.allowances.Save(store.Key(denom, owner, spender), allowance.SaturatingSub(amount)); err != nil {
			return err
		}
	}
	return b.Transfer(denom, owner, recipient, amount)
}

func (b *Bank) Mint(denom, to string, amount num.Uint128) error {
	if amount.IsZero() {
		return types.ErrZeroAmount
	}
	supply, err := b.Supply(denom)
	if err != nil {
		return err
	}
	next, err := supply.CheckedAdd(amount)
	if err != nil {
		return err
	}
	if err := b.supply.Save(denom, next); err != nil {
		return err
	}
	return b.credit(denom, to, amount)
}

func (b *Bank) Burn(denom, from string, amount num.Uint128) error {
	if amount.IsZero() {
		return types.ErrZeroAmount
	}
	if err := b.debit(denom, from, amount); err != nil {
		return err
	}
	supply, err := b.Supply(denom)
	if err != nil {
		return err
	}
	next, err := supply.CheckedSub(amount)
	if err != nil {
		return err
	}
	return b.supply.Save(denom, next)
}

func (b *Bank) debit(denom, from string, amount num.Uint128) error {
	balance, err := b.Balance(denom, from)
	if err != nil {
		return err
	}
	if balance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficient, "balance %s%s < %s%s", balance, denom, amount, denom)
	}
	return b.balances.Save(store.Key(denom, from), balance.SaturatingSub(amount))
}

func (b *Bank) credit(denom, to string, amount num.Uint128) error {
	balance, err := b.Balance(denom, to)
	if err != nil {
		return err
	}
	next, err := balance.CheckedAdd(amount)
	if err != nil {
		return err
	}
	return b.balances.Save(store.Key(denom, to), next)
}
