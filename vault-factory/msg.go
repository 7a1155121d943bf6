package vaultfactory

import (
	"encoding/json"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/vault"
)

func UnmarshalInstantiateMsg(data []byte) (InstantiateMsg, error) {
	var r InstantiateMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *InstantiateMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalExecuteMsg(data []byte) (ExecuteMsg, error) {
	var r ExecuteMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *ExecuteMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalQueryMsg(data []byte) (QueryMsg, error) {
	var r QueryMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *QueryMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Empty when no vault was deployed for the pair.
type VaultResponse string

type VaultListResponse []vault.Config

type InstantiateMsg struct {
	Owner string `json:"owner"`
}

// ExecuteMsg DeployBank deploys a vault holding the bank `denom`, delegated to the sending
// operator. The sender must be registered as an operator in the registry. The vault is not
// whitelisted until the `vault-router` owner sets it.
//
// ExecuteMsg TransferOwnership See [`ownership.TransferOwnership`] for more information on
// this field Only the `owner` can call this message.
type ExecuteMsg struct {
	DeployBank        *DeployBank                  `json:"deploy_bank,omitempty"`
	TransferOwnership *ownership.TransferOwnership `json:"transfer_ownership,omitempty"`
	AcceptOwnership   *ownership.AcceptOwnership   `json:"accept_ownership,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.DeployBank != nil:
		return "deploy_bank"
	case m.TransferOwnership != nil:
		return "transfer_ownership"
	case m.AcceptOwnership != nil:
		return "accept_ownership"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(m.DeployBank != nil, m.TransferOwnership != nil, m.AcceptOwnership != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type DeployBank struct {
	Denom string `json:"denom"`
}

type QueryMsg struct {
	Vault      *VaultQuery `json:"vault,omitempty"`
	ListVaults *ListVaults `json:"list_vaults,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.Vault != nil, m.ListVaults != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type VaultQuery struct {
	Denom    string `json:"denom"`
	Operator string `json:"operator"`
}

type ListVaults struct {
	Limit      *int64  `json:"limit"`
	StartAfter *string `json:"start_after"`
}
