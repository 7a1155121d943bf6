package vaultrouter

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/types"
)

const maxBips = 10_000

func (r *Router) assertSlashManager(caller string) error {
	if caller != r.cfg.SlashManager {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the slash manager", caller)
	}
	return nil
}

// LockSlashing moves bips of the operator's delegated value out of every vault
// into router custody. Amounts are computed from the operator's delegated
// shares at the time of the call, converted at the current exchange rate.
func (r *Router) LockSlashing(caller, id, operator string, bips uint16) ([]LockedAmount, error) {
	if err := r.assertSlashManager(caller); err != nil {
		return nil, err
	}
	if bips == 0 || bips > maxBips {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "bips %d out of range", bips)
	}
	if r.delegation == nil {
		return nil, errorsmod.Wrap(types.ErrNotFound, "delegation manager is not wired")
	}
	exists, err := r.custody.Has(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "slashing request %s is already locked", id)
	}

	var amounts []LockedAmount
	err = r.eachVault(func(v VaultContract) error {
		shares, err := r.delegation.OperatorShares(operator, v.Address())
		if err != nil {
			return err
		}
		if shares.IsZero() {
			return nil
		}
		assets, err := v.ConvertToAssets(shares)
		if err != nil {
			return err
		}
		amount, err := assets.MulDivFloor(num.NewUint128(uint64(bips)), num.NewUint128(maxBips))
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return nil
		}
		if err := v.SlashLocked(r.cfg.Address, amount); err != nil {
			return err
		}
		amounts = append(amounts, LockedAmount{Vault: v.Address(), Denom: v.Denom(), Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.custody.Save(id, custodyRecord{Amounts: amounts}); err != nil {
		return nil, err
	}
	return amounts, nil
}

// FinalizeSlashing releases the custody of a locked request to destination,
// or burns it when destination is nil.
func (r *Router) FinalizeSlashing(caller, id string, destination *string) ([]LockedAmount, error) {
	if err := r.assertSlashManager(caller); err != nil {
		return nil, err
	}
	record, ok, err := r.custody.MayLoad(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "slashing request %s is not locked", id)
	}
	if record.Finalized {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "slashing request %s is already finalized", id)
	}

	for _, locked := range record.Amounts {
		if destination != nil {
			err = r.bank.Transfer(locked.Denom, r.cfg.Address, *destination, locked.Amount)
		} else {
			err = r.bank.Burn(locked.Denom, r.cfg.Address, locked.Amount)
		}
		if err != nil {
			return nil, err
		}
	}
	record.Finalized = true
	if err := r.custody.Save(id, record); err != nil {
		return nil, err
	}
	return record.Amounts, nil
}

// SlashLocked returns the assets held for a request and whether they were
// released.
func (r *Router) SlashLocked(id string) ([]LockedAmount, bool, error) {
	record, _, err := r.custody.MayLoad(id)
	return record.Amounts, record.Finalized, err
}

// UnlockSlashing returns the custody of a locked request to the vaults it was
// taken from and forgets the request. Finalized custody cannot be returned.
func (r *Router) UnlockSlashing(caller, id string) ([]LockedAmount, error) {
	if err := r.assertSlashManager(caller); err != nil {
		return nil, err
	}
	record, ok, err := r.custody.MayLoad(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "slashing request %s is not locked", id)
	}
	if record.Finalized {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "slashing request %s is already finalized", id)
	}

	for _, locked := range record.Amounts {
		if err := r.bank.Transfer(locked.Denom, r.cfg.Address, locked.Vault, locked.Amount); err != nil {
			return nil, err
		}
	}
	if err := r.custody.Remove(id); err != nil {
		return nil, err
	}
	return record.Amounts, nil
}
