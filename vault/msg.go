package vault

import (
	"encoding/json"
	"time"

	"github.com/satlayer/satlayer-restaking/library/num"
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

type AssetsResponse string

type ConvertToAssetsResponse string

type ConvertToSharesResponse string

type SharesResponse string

type TotalAssetsResponse string

type TotalSharesResponse string

// Vault `ExecuteMsg`, to be implemented by the vault contract. Callable by any `sender`,
// redeemable by any `recipient`. The `sender` can be the same as the `recipient` in some
// cases.
//
// ExecuteMsg DepositFor assets into the vault. The vault pulls `amount` from the sender with
// the allowance granted to it and mints shares to the `recipient`. Vault must be
// whitelisted in the `vault-router` to accept deposits.
//
// ExecuteMsg WithdrawTo burns `amount` shares of the sender and sends the assets to the
// `recipient`. Operator must not be validating any services for instant withdrawals.
//
// ExecuteMsg QueueWithdrawalTo removes `amount` shares from the sender and queues them for
// the `recipient`. New withdrawals extend the lock period of any existing withdrawal of the
// same `recipient`. Queue to a different `recipient` to avoid this.
//
// ExecuteMsg RedeemWithdrawalTo redeems all queued shares into assets after the lock period.
// The sender must be the `recipient` of the queued withdrawal.
//
// ExecuteMsg SlashLocked moves `amount` assets from the vault to the `vault-router` for
// custody. Only callable by the `vault-router`.
type ExecuteMsg struct {
	DepositFor         *RecipientAmount    `json:"deposit_for,omitempty"`
	WithdrawTo         *RecipientAmount    `json:"withdraw_to,omitempty"`
	QueueWithdrawalTo  *RecipientAmount    `json:"queue_withdrawal_to,omitempty"`
	RedeemWithdrawalTo *RedeemWithdrawalTo `json:"redeem_withdrawal_to,omitempty"`
	SlashLocked        *SlashLocked        `json:"slash_locked,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.DepositFor != nil:
		return "deposit_for"
	case m.WithdrawTo != nil:
		return "withdraw_to"
	case m.QueueWithdrawalTo != nil:
		return "queue_withdrawal_to"
	case m.RedeemWithdrawalTo != nil:
		return "redeem_withdrawal_to"
	case m.SlashLocked != nil:
		return "slash_locked"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(m.DepositFor != nil, m.WithdrawTo != nil, m.QueueWithdrawalTo != nil,
		m.RedeemWithdrawalTo != nil, m.SlashLocked != nil) {
		return types.ErrNoVariant
	}
	return nil
}

// This struct is used to represent the recipient and amount fields together.
type RecipientAmount struct {
	Amount    num.Uint128 `json:"amount"`
	Recipient string      `json:"recipient"`
}

type RedeemWithdrawalTo struct {
	Recipient string `json:"recipient"`
}

type SlashLocked struct {
	Amount num.Uint128 `json:"amount"`
}

// QueryMsg Shares: get the shares of a staker.
//
// QueryMsg Assets: get the assets of a staker, converted from shares.
//
// QueryMsg ConvertToAssets: convert shares to assets.
//
// QueryMsg ConvertToShares: convert assets to shares.
//
// QueryMsg TotalShares: get the total shares in circulation.
//
// QueryMsg TotalAssets: get the total assets under vault.
//
// QueryMsg QueuedWithdrawal: get the queued withdrawal of a recipient.
//
// QueryMsg VaultInfo: get the vault information.
type QueryMsg struct {
	Shares           *Shares           `json:"shares,omitempty"`
	Assets           *Assets           `json:"assets,omitempty"`
	ConvertToAssets  *ConvertToAssets  `json:"convert_to_assets,omitempty"`
	ConvertToShares  *ConvertToShares  `json:"convert_to_shares,omitempty"`
	TotalShares      *TotalShares      `json:"total_shares,omitempty"`
	TotalAssets      *TotalAssets      `json:"total_assets,omitempty"`
	QueuedWithdrawal *QueuedWithdrawal `json:"queued_withdrawal,omitempty"`
	VaultInfo        *VaultInfo        `json:"vault_info,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.Shares != nil, m.Assets != nil, m.ConvertToAssets != nil, m.ConvertToShares != nil,
		m.TotalShares != nil, m.TotalAssets != nil, m.QueuedWithdrawal != nil, m.VaultInfo != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type Assets struct {
	Staker string `json:"staker"`
}

type ConvertToAssets struct {
	Shares num.Uint128 `json:"shares"`
}

type ConvertToShares struct {
	Assets num.Uint128 `json:"assets"`
}

type Shares struct {
	Staker string `json:"staker"`
}

type TotalAssets struct {
}

type TotalShares struct {
}

type QueuedWithdrawal struct {
	Recipient string `json:"recipient"`
}

type VaultInfo struct {
}

// QueuedWithdrawalInfo is the pending withdrawal of a recipient. At most one
// exists per recipient; queuing again adds to it.
type QueuedWithdrawalInfo struct {
	QueuedShares    num.Uint128 `json:"queued_shares"`
	UnlockTimestamp time.Time   `json:"unlock_timestamp"`
}

type QueuedWithdrawalResponse QueuedWithdrawalInfo

type VaultInfoResponse struct {
	// The vault address
	Vault string `json:"vault"`
	// The bank denom held by this vault
	Denom string `json:"denom"`
	// The `operator` that this vault is delegated to
	Operator string `json:"operator"`
	// The `vault-router` contract address
	Router string `json:"router"`
	// Whether the vault accepts deposits
	Whitelisted bool `json:"whitelisted"`
	// The total assets under management
	TotalAssets num.Uint128 `json:"total_assets"`
	// The total shares in circulation
	TotalShares num.Uint128 `json:"total_shares"`
}
