package vaultrouter

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/types"
)

// The router is the strategy manager of the delegation manager: every vault
// set on the router is a strategy, addressed by the vault address.

func (r *Router) assertDelegationManager(caller string) error {
	if caller != r.cfg.DelegationManager {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the delegation manager", caller)
	}
	return nil
}

func (r *Router) strategy(strategy string) (VaultContract, error) {
	ok, err := r.IsStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "strategy %s", strategy)
	}
	v, found := r.resolve(strategy)
	if !found {
		return nil, errorsmod.Wrapf(types.ErrUnknownContract, "vault %s", strategy)
	}
	return v, nil
}

// IsStrategy reports whether the vault was ever set on the router.
func (r *Router) IsStrategy(strategy string) (bool, error) {
	return r.vaults.Has(strategy)
}

// GetDeposits returns every strategy the staker holds shares in.
func (r *Router) GetDeposits(staker string) ([]string, []num.Uint128, error) {
	var strategies []string
	var shares []num.Uint128
	err := r.eachVault(func(v VaultContract) error {
		s, err := v.SharesOf(staker)
		if err != nil {
			return err
		}
		if !s.IsZero() {
			strategies = append(strategies, v.Address())
			shares = append(shares, s)
		}
		return nil
	})
	return strategies, shares, err
}

func (r *Router) StakerStrategyShares(staker, strategy string) (num.Uint128, error) {
	v, err := r.strategy(strategy)
	if err != nil {
		return num.Uint128{}, err
	}
	return v.SharesOf(staker)
}

func (r *Router) RemoveShares(caller, staker, strategy string, shares num.Uint128) error {
	if err := r.assertDelegationManager(caller); err != nil {
		return err
	}
	v, err := r.strategy(strategy)
	if err != nil {
		return err
	}
	return v.RemoveShares(r.cfg.Address, staker, shares)
}

func (r *Router) AddShares(caller, staker, strategy string, shares num.Uint128) error {
	if err := r.assertDelegationManager(caller); err != nil {
		return err
	}
	v, err := r.strategy(strategy)
	if err != nil {
		return err
	}
	return v.AddShares(r.cfg.Address, staker, shares)
}

func (r *Router) WithdrawSharesAsTokens(caller, recipient, strategy string, shares num.Uint128) (num.Uint128, error) {
	if err := r.assertDelegationManager(caller); err != nil {
		return num.Uint128{}, err
	}
	v, err := r.strategy(strategy)
	if err != nil {
		return num.Uint128{}, err
	}
	return v.WithdrawSharesAsTokens(r.cfg.Address, recipient, shares)
}
