package vaultfactory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/pauser"
	"github.com/satlayer/satlayer-restaking/vault"
)

type operators map[string]bool

func (o operators) IsOperator(addr string) (bool, error) { return o[addr], nil }

type recordingDeployer struct {
	deployed []vault.Config
}

func (d *recordingDeployer) Deploy(cfg vault.Config) error {
	d.deployed = append(d.deployed, cfg)
	return nil
}

func setup(t *testing.T) (*Factory, *recordingDeployer, string) {
	kv := store.NewMemStore()
	owner := types.GenerateAddress("owner")
	operator := types.GenerateAddress("operator")

	p := pauser.New(store.Prefix(kv, "pauser"), types.ContractAddress("pauser"))
	require.NoError(t, p.Instantiate(pauser.InstantiateMsg{Owner: owner}))

	deployer := &recordingDeployer{}
	f := New(store.Prefix(kv, "factory"), types.ContractAddress("vault-factory"), p, operators{operator: true}, deployer)
	require.NoError(t, f.Instantiate(InstantiateMsg{Owner: owner}))
	return f, deployer, operator
}

func TestDeployBank(t *testing.T) {
	f, deployer, operator := setup(t)
	info := types.MessageInfo{Sender: operator}

	res, err := f.Execute(types.Env{}, info, ExecuteMsg{DeployBank: &DeployBank{Denom: "ubbn"}})
	require.NoError(t, err)
	assert.Equal(t, "VaultDeployed", res.Events[0].Type)

	require.Len(t, deployer.deployed, 1)
	cfg := deployer.deployed[0]
	assert.Equal(t, VaultAddress("ubbn", operator), cfg.Address)
	assert.Equal(t, operator, cfg.Operator)

	got, err := f.Query(types.Env{}, QueryMsg{Vault: &VaultQuery{Denom: "ubbn", Operator: operator}})
	require.NoError(t, err)
	assert.Equal(t, VaultResponse(cfg.Address), got)

	_, err = f.Execute(types.Env{}, info, ExecuteMsg{DeployBank: &DeployBank{Denom: "ubbn"}})
	assert.ErrorIs(t, err, types.ErrAlreadyExists)

	_, err = f.Execute(types.Env{}, info, ExecuteMsg{DeployBank: &DeployBank{Denom: "uatom"}})
	require.NoError(t, err)

	deployed, err := f.Deployed()
	require.NoError(t, err)
	assert.Len(t, deployed, 2)
	assert.NotEqual(t, deployed[0].Address, deployed[1].Address)
}

func TestDeployBankErrors(t *testing.T) {
	f, _, operator := setup(t)

	tests := []struct {
		name   string
		sender string
		denom  string
		err    error
	}{
		{"not an operator", types.GenerateAddress("stranger"), "ubbn", types.ErrUnauthorized},
		{"empty denom", operator, "", types.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Execute(types.Env{}, types.MessageInfo{Sender: tt.sender}, ExecuteMsg{DeployBank: &DeployBank{Denom: tt.denom}})
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestListVaults(t *testing.T) {
	f, _, operator := setup(t)
	for _, denom := range []string{"a", "b", "c"} {
		_, err := f.Execute(types.Env{}, types.MessageInfo{Sender: operator}, ExecuteMsg{DeployBank: &DeployBank{Denom: denom}})
		require.NoError(t, err)
	}

	limit := int64(2)
	got, err := f.Query(types.Env{}, QueryMsg{ListVaults: &ListVaults{Limit: &limit}})
	require.NoError(t, err)
	page := got.(VaultListResponse)
	require.Len(t, page, 2)

	got, err = f.Query(types.Env{}, QueryMsg{ListVaults: &ListVaults{StartAfter: &page[1].Address}})
	require.NoError(t, err)
	assert.Len(t, got.(VaultListResponse), 1)
}
