// Package vaultfactory deploys bank vaults for registered operators.
package vaultfactory

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/vault"
)

const maxListLimit = 100

type Pauser interface {
	AssertCanExecute(contract, sender, method string) error
}

type Registry interface {
	IsOperator(addr string) (bool, error)
}

// Deployer brings a vault to life once its record is stored.
type Deployer interface {
	Deploy(cfg vault.Config) error
}

type Factory struct {
	address   string
	pauser    Pauser
	registry  Registry
	deployer  Deployer
	ownership ownership.Ownership

	vaults store.Map[vault.Config]
	index  store.Map[string]
}

func New(s store.KVStore, address string, pauser Pauser, registry Registry, deployer Deployer) *Factory {
	return &Factory{
		address:   address,
		pauser:    pauser,
		registry:  registry,
		deployer:  deployer,
		ownership: ownership.New(s),
		vaults:    store.NewMap[vault.Config](s, "vaults"),
		index:     store.NewMap[string](s, "vault_index"),
	}
}

func (f *Factory) Address() string {
	return f.address
}

func (f *Factory) Instantiate(msg InstantiateMsg) error {
	return f.ownership.Init(msg.Owner)
}

// VaultAddress is the deterministic address of the vault for (denom, operator).
func VaultAddress(denom, operator string) string {
	return types.ContractAddress("vault/" + denom + "/" + operator)
}

func (f *Factory) Execute(_ types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := f.pauser.AssertCanExecute(f.address, info.Sender, msg.Method()); err != nil {
		return nil, err
	}

	switch {
	case msg.DeployBank != nil:
		return f.deployBank(info.Sender, msg.DeployBank.Denom)
	case msg.TransferOwnership != nil:
		return f.ownership.Transfer(info.Sender, *msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return f.ownership.Accept(info.Sender)
	}
	return nil, types.ErrNoVariant
}

func (f *Factory) deployBank(operator, denom string) (*types.Response, error) {
	if denom == "" {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "denom is empty")
	}
	isOperator, err := f.registry.IsOperator(operator)
	if err != nil {
		return nil, err
	}
	if !isOperator {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not a registered operator", operator)
	}

	key := store.Key(denom, operator)
	exists, err := f.index.Has(key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "vault for %s by %s", denom, operator)
	}

	cfg := vault.Config{Address: VaultAddress(denom, operator), Denom: denom, Operator: operator}
	if err := f.vaults.Save(cfg.Address, cfg); err != nil {
		return nil, err
	}
	if err := f.index.Save(key, cfg.Address); err != nil {
		return nil, err
	}
	if err := f.deployer.Deploy(cfg); err != nil {
		return nil, err
	}

	return types.NewResponse().AddEvent(types.NewEvent("VaultDeployed").
		AddAttribute("vault", cfg.Address).
		AddAttribute("denom", denom).
		AddAttribute("operator", operator)), nil
}

func (f *Factory) Query(_ types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.Vault != nil:
		addr, _, err := f.index.MayLoad(store.Key(msg.Vault.Denom, msg.Vault.Operator))
		return VaultResponse(addr), err
	case msg.ListVaults != nil:
		startAfter := ""
		if msg.ListVaults.StartAfter != nil {
			startAfter = *msg.ListVaults.StartAfter
		}
		limit := maxListLimit
		if msg.ListVaults.Limit != nil && *msg.ListVaults.Limit > 0 && *msg.ListVaults.Limit < maxListLimit {
			limit = int(*msg.ListVaults.Limit)
		}
		entries, err := f.vaults.Entries("", startAfter, limit)
		if err != nil {
			return nil, err
		}
		res := make(VaultListResponse, 0, len(entries))
		for _, e := range entries {
			res = append(res, e.Value)
		}
		return res, nil
	}
	return nil, types.ErrNoVariant
}

// Deployed returns the record of every vault deployed so far, in address
// order. Used to bring vaults back up on restart.
func (f *Factory) Deployed() ([]vault.Config, error) {
	var out []vault.Config
	err := f.vaults.Each("", func(_ string, cfg vault.Config) error {
		out = append(out, cfg)
		return nil
	})
	return out, err
}

// Vault returns the record of a deployed vault.
func (f *Factory) Vault(address string) (vault.Config, bool, error) {
	return f.vaults.MayLoad(address)
}
