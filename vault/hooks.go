package vault

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/types"
)

// The hooks below move shares for the delegation registry's withdrawal queue.
// They are only callable by the router, which acts as the strategy manager,
// and never notify the DelegationHook: the registry accounts for them itself.

func (v *Vault) assertRouter(caller string) error {
	if caller != v.router.Address() {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the router", caller)
	}
	return nil
}

// AddShares credits shares to staker without changing total shares. Used to
// return shares that RemoveShares took out.
func (v *Vault) AddShares(caller, staker string, shares num.Uint128) error {
	if err := v.assertRouter(caller); err != nil {
		return err
	}
	return v.addShares(staker, shares)
}

// RemoveShares debits staker without changing total shares, so the exchange
// rate for the remaining stakers is preserved while the withdrawal is pending.
func (v *Vault) RemoveShares(caller, staker string, shares num.Uint128) error {
	if err := v.assertRouter(caller); err != nil {
		return err
	}
	if err := v.assertShares(staker, shares); err != nil {
		return err
	}
	return v.subShares(staker, shares)
}

// WithdrawSharesAsTokens burns shares previously taken out with RemoveShares
// and sends their value to recipient at the current exchange rate.
func (v *Vault) WithdrawSharesAsTokens(caller, recipient string, shares num.Uint128) (num.Uint128, error) {
	if err := v.assertRouter(caller); err != nil {
		return num.Uint128{}, err
	}
	assets, err := v.ConvertToAssets(shares)
	if err != nil {
		return num.Uint128{}, err
	}
	if assets.IsZero() {
		return num.Uint128{}, types.ErrZeroAmount
	}
	if _, err := v.adjustTotalShares(shares, false); err != nil {
		return num.Uint128{}, err
	}
	if err := v.bank.Transfer(v.cfg.Denom, v.cfg.Address, recipient, assets); err != nil {
		return num.Uint128{}, err
	}
	return assets, nil
}
