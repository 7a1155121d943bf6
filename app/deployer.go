package app

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
	"github.com/satlayer/satlayer-restaking/metrics"
	slashmanager "github.com/satlayer/satlayer-restaking/slash-manager"
	"github.com/satlayer/satlayer-restaking/vault"
	vaultrouter "github.com/satlayer/satlayer-restaking/vault-router"
)

// deployer brings up vaults recorded by the factory. The factory record is
// the source of truth, so a deploy rolled back with its transaction leaves no
// vault behind.
type deployer struct {
	app *App
}

func (d deployer) Deploy(cfg vault.Config) error {
	if _, ok := d.app.handlers[cfg.Address]; ok {
		return errorsmod.Wrapf(types.ErrAlreadyExists, "contract %s", cfg.Address)
	}
	d.app.logger.Info("vault deployed",
		logger.WithField("vault", cfg.Address),
		logger.WithField("denom", cfg.Denom),
		logger.WithField("operator", cfg.Operator),
	)
	return nil
}

func (a *App) vault(address string) (*vault.Vault, bool) {
	cfg, ok, err := a.Factory.Vault(address)
	if err != nil || !ok {
		return nil, false
	}
	if v, ok := a.vaults[address]; ok {
		return v, true
	}
	v := vault.New(store.Prefix(a.tx, VaultName+"/"+address), cfg, a.Bank, a.Router, a.Pauser)
	v.SetDelegationHook(a.DelegationManager)
	a.vaults[address] = v
	return v, true
}

func (a *App) resolveVault(address string) (vaultrouter.VaultContract, bool) {
	v, ok := a.vault(address)
	if !ok {
		return nil, false
	}
	return v, true
}

func (a *App) resolveGuardrail(address string) (slashmanager.Guardrail, bool) {
	if address != a.Guardrail.Address() {
		return nil, false
	}
	return a.Guardrail, true
}

// VaultStats reports the totals of every deployed vault.
func (a *App) VaultStats() ([]metrics.VaultStat, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	deployed, err := a.Factory.Deployed()
	if err != nil {
		return nil, err
	}
	stats := make([]metrics.VaultStat, 0, len(deployed))
	for _, cfg := range deployed {
		v, ok := a.vault(cfg.Address)
		if !ok {
			continue
		}
		shares, err := v.TotalShares()
		if err != nil {
			return nil, err
		}
		assets, err := v.TotalAssets()
		if err != nil {
			return nil, err
		}
		stats = append(stats, metrics.VaultStat{
			Address:     cfg.Address,
			Denom:       cfg.Denom,
			TotalShares: shares.String(),
			TotalAssets: assets.String(),
		})
	}
	return stats, nil
}
