package app

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/bank"
	"github.com/satlayer/satlayer-restaking/conf"
	delegationmanager "github.com/satlayer/satlayer-restaking/delegation-manager"
	"github.com/satlayer/satlayer-restaking/guardrail"
	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
	"github.com/satlayer/satlayer-restaking/pauser"
	"github.com/satlayer/satlayer-restaking/registry"
	slashmanager "github.com/satlayer/satlayer-restaking/slash-manager"
	vaultfactory "github.com/satlayer/satlayer-restaking/vault-factory"
	vaultrouter "github.com/satlayer/satlayer-restaking/vault-router"
)

// Initialized reports whether genesis has been applied to the store.
func (a *App) Initialized() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok, err := a.genesis.MayLoad()
	return ok, err
}

// InitGenesis instantiates every contract and applies g in one transaction.
// It fails with ErrAlreadyExists on a store that already has a genesis.
func (a *App) InitGenesis(_ context.Context, block types.BlockInfo, g conf.Genesis) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := g.Validate(); err != nil {
		return err
	}
	if err := a.tx.Begin(); err != nil {
		return err
	}
	if err := a.applyGenesis(block, g); err != nil {
		a.tx.Rollback()
		return err
	}
	if err := a.tx.Commit(); err != nil {
		return types.WrapError(types.ErrCorruptedStorage, err)
	}
	a.logger.Info("genesis applied",
		logger.WithField("owner", g.Owner),
		logger.WithField("height", block.Height),
		logger.WithField("vaults", len(g.Vaults)),
	)
	return nil
}

func (a *App) applyGenesis(block types.BlockInfo, g conf.Genesis) error {
	if _, ok, err := a.genesis.MayLoad(); err != nil {
		return err
	} else if ok {
		return errorsmod.Wrap(types.ErrAlreadyExists, "genesis")
	}
	if block.Time.IsZero() {
		block.Time = a.clock()
	}
	at := func(contract string) types.Env {
		return types.Env{Block: block, Contract: types.ContractInfo{Address: contract}}
	}
	owner := types.MessageInfo{Sender: g.Owner}

	if err := a.Bank.Instantiate(bank.InstantiateMsg{Minter: g.Owner}); err != nil {
		return err
	}
	if err := a.Pauser.Instantiate(pauser.InstantiateMsg{Owner: g.Owner}); err != nil {
		return err
	}
	if err := a.Registry.Instantiate(registry.InstantiateMsg{Owner: g.Owner, Pauser: a.Pauser.Address()}); err != nil {
		return err
	}
	routerMsg := vaultrouter.InstantiateMsg{Owner: g.Owner}
	if g.WithdrawalLockPeriod > 0 {
		routerMsg.WithdrawalLockPeriod = &g.WithdrawalLockPeriod
	}
	if err := a.Router.Instantiate(routerMsg); err != nil {
		return err
	}
	if err := a.Factory.Instantiate(vaultfactory.InstantiateMsg{Owner: g.Owner}); err != nil {
		return err
	}
	if err := a.DelegationManager.Instantiate(delegationmanager.InstantiateMsg{
		InitialOwner:             g.Owner,
		MinWithdrawalDelayBlocks: g.MinWithdrawalDelayBlocks,
	}); err != nil {
		return err
	}

	smMsg := slashmanager.InstantiateMsg{Owner: g.Owner}
	if g.Guardrail != nil {
		members := make([]guardrail.Member, 0, len(g.Guardrail.Members))
		for _, m := range g.Guardrail.Members {
			members = append(members, guardrail.Member{Addr: m.Addr, Weight: m.Weight})
		}
		if err := a.Guardrail.Instantiate(at(a.Guardrail.Address()), guardrail.InstantiateMsg{
			Owner:     g.Owner,
			Members:   members,
			Threshold: g.Guardrail.Threshold,
		}); err != nil {
			return err
		}
		addr := a.Guardrail.Address()
		smMsg.Guardrail = &addr
	}
	if err := a.SlashManager.Instantiate(smMsg); err != nil {
		return err
	}

	for _, b := range g.Balances {
		amount, err := num.ParseUint128(b.Amount)
		if err != nil {
			return errorsmod.Wrapf(types.ErrInvalidInput, "genesis balance of %s: %v", b.Address, err)
		}
		if err := a.Bank.Mint(b.Denom, b.Address, amount); err != nil {
			return err
		}
	}

	for _, op := range g.Operators {
		info := types.MessageInfo{Sender: op}
		if _, err := a.Registry.Execute(at(a.Registry.Address()), info, registry.ExecuteMsg{
			RegisterAsOperator: &registry.RegisterAsOperator{},
		}); err != nil {
			return err
		}
		if _, err := a.DelegationManager.Execute(at(a.DelegationManager.Address()), info, delegationmanager.ExecuteMsg{
			RegisterAsOperator: &delegationmanager.RegisterAsOperator{},
		}); err != nil {
			return err
		}
	}

	for _, v := range g.Vaults {
		if _, err := a.Factory.Execute(at(a.Factory.Address()), types.MessageInfo{Sender: v.Operator}, vaultfactory.ExecuteMsg{
			DeployBank: &vaultfactory.DeployBank{Denom: v.Denom},
		}); err != nil {
			return err
		}
		addr := vaultfactory.VaultAddress(v.Denom, v.Operator)
		if _, err := a.Router.Execute(at(a.Router.Address()), owner, vaultrouter.ExecuteMsg{
			SetVault: &vaultrouter.SetVault{Vault: addr, Whitelisted: true},
		}); err != nil {
			return err
		}
		if v.WithdrawalDelayBlocks > 0 {
			if _, err := a.DelegationManager.Execute(at(a.DelegationManager.Address()), owner, delegationmanager.ExecuteMsg{
				SetStrategyWithdrawalDelayBlocks: &delegationmanager.SetStrategyWithdrawalDelayBlocks{
					Strategies:            []string{addr},
					WithdrawalDelayBlocks: []int64{v.WithdrawalDelayBlocks},
				},
			}); err != nil {
				return err
			}
		}
	}

	if err := a.genesis.Save(block.Height); err != nil {
		return err
	}
	return a.lastBlock.Save(block)
}
