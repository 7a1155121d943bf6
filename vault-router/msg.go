package vaultrouter

import (
	"encoding/json"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/types"
)

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

type IsValidatingResponse bool

type IsWhitelistedResponse bool

type VaultListResponse []Vault

// Seconds.
type WithdrawalLockPeriodResponse int64

type SlashLockedResponse []LockedAmount

type InstantiateMsg struct {
	Owner string `json:"owner"`
	// Seconds, defaults to DefaultWithdrawalLockPeriod.
	WithdrawalLockPeriod *int64 `json:"withdrawal_lock_period,omitempty"`
}

// ExecuteMsg SetVault the vault contract in the router and whitelist (true/false) it. Only
// the `owner` can call this message.
//
// ExecuteMsg SetWithdrawalLockPeriod sets the lock period in seconds applied to new queued
// withdrawals. Already queued withdrawals keep their unlock timestamp. Only the `owner`
// can call this message.
//
// ExecuteMsg TransferOwnership See [`ownership.TransferOwnership`] for more information on
// this field
type ExecuteMsg struct {
	SetVault                *SetVault                    `json:"set_vault,omitempty"`
	SetWithdrawalLockPeriod *SetWithdrawalLockPeriod     `json:"set_withdrawal_lock_period,omitempty"`
	TransferOwnership       *ownership.TransferOwnership `json:"transfer_ownership,omitempty"`
	AcceptOwnership         *ownership.AcceptOwnership   `json:"accept_ownership,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.SetVault != nil:
		return "set_vault"
	case m.SetWithdrawalLockPeriod != nil:
		return "set_withdrawal_lock_period"
	case m.TransferOwnership != nil:
		return "transfer_ownership"
	case m.AcceptOwnership != nil:
		return "accept_ownership"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(m.SetVault != nil, m.SetWithdrawalLockPeriod != nil,
		m.TransferOwnership != nil, m.AcceptOwnership != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type SetVault struct {
	Vault       string `json:"vault"`
	Whitelisted bool   `json:"whitelisted"`
}

type SetWithdrawalLockPeriod struct {
	Seconds int64 `json:"seconds"`
}

// QueryMsg IsWhitelisted: returns true if the vault is whitelisted. See
// [`ExecuteMsg::SetVault`]
//
// QueryMsg IsValidating: returns true if the operator is validating services. See BVS
// Registry for more information.
//
// QueryMsg ListVaults: returns a list of vaults. You can provide `limit` and `start_after`
// to paginate the results. The max `limit` is 100.
//
// QueryMsg WithdrawalLockPeriod: returns the lock period in seconds.
//
// QueryMsg SlashLocked: returns the assets held in custody for a slashing request.
type QueryMsg struct {
	IsWhitelisted        *IsWhitelisted        `json:"is_whitelisted,omitempty"`
	IsValidating         *IsValidating         `json:"is_validating,omitempty"`
	ListVaults           *ListVaults           `json:"list_vaults,omitempty"`
	WithdrawalLockPeriod *WithdrawalLockPeriod `json:"withdrawal_lock_period,omitempty"`
	SlashLocked          *SlashLocked          `json:"slash_locked,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.IsWhitelisted != nil, m.IsValidating != nil, m.ListVaults != nil,
		m.WithdrawalLockPeriod != nil, m.SlashLocked != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type IsValidating struct {
	Operator string `json:"operator"`
}

type IsWhitelisted struct {
	Vault string `json:"vault"`
}

type ListVaults struct {
	Limit      *int64  `json:"limit"`
	StartAfter *string `json:"start_after"`
}

type WithdrawalLockPeriod struct {
}

type SlashLocked struct {
	SlashingRequestID string `json:"slashing_request_id"`
}

// The response to the `ListVaults` query. For pagination, the `start_after` field is the
// last `vault` from the previous page.
type Vault struct {
	Vault       string `json:"vault"`
	Whitelisted bool   `json:"whitelisted"`
}

// LockedAmount is the part of a slashing request held from one vault.
type LockedAmount struct {
	Vault  string      `json:"vault"`
	Denom  string      `json:"denom"`
	Amount num.Uint128 `json:"amount"`
}
