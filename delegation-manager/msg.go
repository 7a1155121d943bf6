package delegationmanager

import (
	"encoding/json"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/types"
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

type InstantiateMsg struct {
	InitialOwner             string   `json:"initial_owner"`
	MinWithdrawalDelayBlocks int64    `json:"min_withdrawal_delay_blocks"`
	Strategies               []string `json:"strategies"`
	WithdrawalDelayBlocks    []int64  `json:"withdrawal_delay_blocks"`
}

// ExecuteMsg RegisterAsOperator registers the sender as an operator. The operator is
// delegated to itself. `metadata_uri` is emitted as an event and never stored.
//
// ExecuteMsg ModifyOperatorDetails updates the details of the sending operator. The
// `staker_opt_out_window_blocks` can only be increased.
//
// ExecuteMsg DelegateTo delegates the shares of the sender to `operator`. If the operator has
// a `delegation_approver`, a signature of that approver over the approval digest is
// required, unless the sender is the approver or the operator.
//
// ExecuteMsg Undelegate removes the delegation of `staker` and queues withdrawals of all of
// its shares. Callable by the staker, its operator or the operator's approver.
//
// ExecuteMsg QueueWithdrawals removes shares of the sender from the strategies and queues
// them. The withdrawal can be completed after the withdrawal delay.
//
// ExecuteMsg CompleteQueuedWithdrawal completes a queued withdrawal, either as tokens or by
// re-adding the shares to the withdrawer.
//
// ExecuteMsg IncreaseDelegatedShares and DecreaseDelegatedShares are called by the
// strategy layer when the shares of a delegated staker change.
type ExecuteMsg struct {
	RegisterAsOperator               *RegisterAsOperator                `json:"register_as_operator,omitempty"`
	ModifyOperatorDetails            *ModifyOperatorDetails             `json:"modify_operator_details,omitempty"`
	UpdateOperatorMetadataURI        *UpdateOperatorMetadataURI         `json:"update_operator_metadata_uri,omitempty"`
	DelegateTo                       *DelegateTo                        `json:"delegate_to,omitempty"`
	Undelegate                       *Undelegate                        `json:"undelegate,omitempty"`
	QueueWithdrawals                 *QueueWithdrawals                  `json:"queue_withdrawals,omitempty"`
	CompleteQueuedWithdrawal         *CompleteQueuedWithdrawal          `json:"complete_queued_withdrawal,omitempty"`
	IncreaseDelegatedShares          *IncreaseDelegatedShares           `json:"increase_delegated_shares,omitempty"`
	DecreaseDelegatedShares          *DecreaseDelegatedShares           `json:"decrease_delegated_shares,omitempty"`
	SetMinWithdrawalDelayBlocks      *SetMinWithdrawalDelayBlocks       `json:"set_min_withdrawal_delay_blocks,omitempty"`
	SetStrategyWithdrawalDelayBlocks *SetStrategyWithdrawalDelayBlocks  `json:"set_strategy_withdrawal_delay_blocks,omitempty"`
	TransferOwnership                *ownership.TransferOwnership       `json:"transfer_ownership,omitempty"`
	AcceptOwnership                  *ownership.AcceptOwnership         `json:"accept_ownership,omitempty"`
	CancelOwnershipTransfer          *ownership.CancelOwnershipTransfer `json:"cancel_ownership_transfer,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.RegisterAsOperator != nil:
		return "register_as_operator"
	case m.ModifyOperatorDetails != nil:
		return "modify_operator_details"
	case m.UpdateOperatorMetadataURI != nil:
		return "update_operator_metadata_uri"
	case m.DelegateTo != nil:
		return "delegate_to"
	case m.Undelegate != nil:
		return "undelegate"
	case m.QueueWithdrawals != nil:
		return "queue_withdrawals"
	case m.CompleteQueuedWithdrawal != nil:
		return "complete_queued_withdrawal"
	case m.IncreaseDelegatedShares != nil:
		return "increase_delegated_shares"
	case m.DecreaseDelegatedShares != nil:
		return "decrease_delegated_shares"
	case m.SetMinWithdrawalDelayBlocks != nil:
		return "set_min_withdrawal_delay_blocks"
	case m.SetStrategyWithdrawalDelayBlocks != nil:
		return "set_strategy_withdrawal_delay_blocks"
	case m.TransferOwnership != nil:
		return "transfer_ownership"
	case m.AcceptOwnership != nil:
		return "accept_ownership"
	case m.CancelOwnershipTransfer != nil:
		return "cancel_ownership_transfer"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(
		m.RegisterAsOperator != nil, m.ModifyOperatorDetails != nil, m.UpdateOperatorMetadataURI != nil,
		m.DelegateTo != nil, m.Undelegate != nil,
		m.QueueWithdrawals != nil, m.CompleteQueuedWithdrawal != nil,
		m.IncreaseDelegatedShares != nil, m.DecreaseDelegatedShares != nil,
		m.SetMinWithdrawalDelayBlocks != nil, m.SetStrategyWithdrawalDelayBlocks != nil,
		m.TransferOwnership != nil, m.AcceptOwnership != nil, m.CancelOwnershipTransfer != nil,
	) {
		return types.ErrNoVariant
	}
	return nil
}

type OperatorDetails struct {
	// Empty when anyone may delegate without approval.
	DelegationApprover       string `json:"delegation_approver"`
	StakerOptOutWindowBlocks int64  `json:"staker_opt_out_window_blocks"`
}

type RegisterAsOperator struct {
	MetadataURI     string          `json:"metadata_uri"`
	OperatorDetails OperatorDetails `json:"operator_details"`
}

type ModifyOperatorDetails struct {
	NewOperatorDetails OperatorDetails `json:"new_operator_details"`
}

type UpdateOperatorMetadataURI struct {
	MetadataURI string `json:"metadata_uri"`
}

type SignatureWithExpiry struct {
	// unix seconds
	Expiry int64 `json:"expiry"`
	// base64 compact secp256k1 signature (r || s)
	Signature string `json:"signature"`
}

type DelegateTo struct {
	Operator                   string               `json:"operator"`
	ApproverSignatureAndExpiry *SignatureWithExpiry `json:"approver_signature_and_expiry,omitempty"`
	// base64
	ApproverSalt string `json:"approver_salt,omitempty"`
	// base64 compressed secp256k1 public key of the approver
	ApproverPublicKey string `json:"approver_public_key,omitempty"`
}

type Undelegate struct {
	Staker string `json:"staker"`
}

type QueuedWithdrawalParams struct {
	Shares     []num.Uint128 `json:"shares"`
	Strategies []string      `json:"strategies"`
	Withdrawer string        `json:"withdrawer"`
}

type QueueWithdrawals struct {
	QueuedWithdrawalParams []QueuedWithdrawalParams `json:"queued_withdrawal_params"`
}

// Withdrawal is the full record of a queued withdrawal. Only its root is
// stored; the withdrawer presents the record again to complete it.
type Withdrawal struct {
	DelegatedTo string        `json:"delegated_to"`
	Nonce       uint64        `json:"nonce"`
	Shares      []num.Uint128 `json:"shares"`
	Staker      string        `json:"staker"`
	StartBlock  int64         `json:"start_block"`
	Strategies  []string      `json:"strategies"`
	Withdrawer  string        `json:"withdrawer"`
}

type CompleteQueuedWithdrawal struct {
	ReceiveAsTokens bool       `json:"receive_as_tokens"`
	Withdrawal      Withdrawal `json:"withdrawal"`
}

type IncreaseDelegatedShares struct {
	Shares   num.Uint128 `json:"shares"`
	Staker   string      `json:"staker"`
	Strategy string      `json:"strategy"`
}

type DecreaseDelegatedShares struct {
	Shares   num.Uint128 `json:"shares"`
	Staker   string      `json:"staker"`
	Strategy string      `json:"strategy"`
}

type SetMinWithdrawalDelayBlocks struct {
	NewMinWithdrawalDelayBlocks int64 `json:"new_min_withdrawal_delay_blocks"`
}

type SetStrategyWithdrawalDelayBlocks struct {
	Strategies            []string `json:"strategies"`
	WithdrawalDelayBlocks []int64  `json:"withdrawal_delay_blocks"`
}

type QueryMsg struct {
	IsDelegated                    *IsDelegated                    `json:"is_delegated,omitempty"`
	DelegatedTo                    *DelegatedTo                    `json:"delegated_to,omitempty"`
	IsOperator                     *IsOperator                     `json:"is_operator,omitempty"`
	OperatorDetails                *OperatorDetailsQuery           `json:"operator_details,omitempty"`
	StakerOptOutWindowBlocks       *StakerOptOutWindowBlocks       `json:"staker_opt_out_window_blocks,omitempty"`
	GetOperatorShares              *GetOperatorShares              `json:"get_operator_shares,omitempty"`
	GetDelegatableShares           *GetDelegatableShares           `json:"get_delegatable_shares,omitempty"`
	GetWithdrawalDelay             *GetWithdrawalDelay             `json:"get_withdrawal_delay,omitempty"`
	CalculateWithdrawalRoot        *CalculateWithdrawalRoot        `json:"calculate_withdrawal_root,omitempty"`
	IsWithdrawalPending            *IsWithdrawalPending            `json:"is_withdrawal_pending,omitempty"`
	DelegationApprovalDigestHash   *DelegationApprovalDigestHash   `json:"delegation_approval_digest_hash,omitempty"`
	IsSaltSpent                    *IsSaltSpent                    `json:"is_salt_spent,omitempty"`
	GetCumulativeWithdrawalsQueued *GetCumulativeWithdrawalsQueued `json:"get_cumulative_withdrawals_queued,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(
		m.IsDelegated != nil, m.DelegatedTo != nil, m.IsOperator != nil, m.OperatorDetails != nil,
		m.StakerOptOutWindowBlocks != nil, m.GetOperatorShares != nil, m.GetDelegatableShares != nil,
		m.GetWithdrawalDelay != nil, m.CalculateWithdrawalRoot != nil, m.IsWithdrawalPending != nil,
		m.DelegationApprovalDigestHash != nil, m.IsSaltSpent != nil, m.GetCumulativeWithdrawalsQueued != nil,
	) {
		return types.ErrNoVariant
	}
	return nil
}

type IsDelegated struct {
	Staker string `json:"staker"`
}

type DelegatedTo struct {
	Staker string `json:"staker"`
}

type IsOperator struct {
	Operator string `json:"operator"`
}

type OperatorDetailsQuery struct {
	Operator string `json:"operator"`
}

type StakerOptOutWindowBlocks struct {
	Operator string `json:"operator"`
}

type GetOperatorShares struct {
	Operator   string   `json:"operator"`
	Strategies []string `json:"strategies"`
}

type GetDelegatableShares struct {
	Staker string `json:"staker"`
}

type GetWithdrawalDelay struct {
	Strategies []string `json:"strategies"`
}

type CalculateWithdrawalRoot struct {
	Withdrawal Withdrawal `json:"withdrawal"`
}

type IsWithdrawalPending struct {
	WithdrawalRoot string `json:"withdrawal_root"`
}

type DelegationApprovalDigestHash struct {
	ApproverDigestHashParams ApproverDigestHashParams `json:"approver_digest_hash_params"`
}

type ApproverDigestHashParams struct {
	Approver string `json:"approver"`
	// base64
	ApproverPublicKey string `json:"approver_public_key"`
	// base64
	ApproverSalt string `json:"approver_salt"`
	ContractAddr string `json:"contract_addr"`
	Expiry       int64  `json:"expiry"`
	Operator     string `json:"operator"`
	Staker       string `json:"staker"`
}

type IsSaltSpent struct {
	Approver string `json:"approver"`
	Salt     string `json:"salt"`
}

type GetCumulativeWithdrawalsQueued struct {
	Staker string `json:"staker"`
}

type DelegatedResponse struct {
	IsDelegated bool `json:"is_delegated"`
}

// Empty when the staker is not delegated.
type DelegatedToResponse string

type OperatorResponse struct {
	IsOperator bool `json:"is_operator"`
}

type OperatorDetailsResponse struct {
	Details OperatorDetails `json:"details"`
}

type StakerOptOutWindowBlocksResponse struct {
	StakerOptOutWindowBlocks int64 `json:"staker_opt_out_window_blocks"`
}

type OperatorSharesResponse struct {
	Shares []num.Uint128 `json:"shares"`
}

type DelegatableSharesResponse struct {
	Shares     []num.Uint128 `json:"shares"`
	Strategies []string      `json:"strategies"`
}

type WithdrawalDelayResponse struct {
	WithdrawalDelays []int64 `json:"withdrawal_delays"`
}

type CalculateWithdrawalRootResponse struct {
	WithdrawalRoot string `json:"withdrawal_root"`
}

type IsWithdrawalPendingResponse bool

type DelegationApprovalDigestHashResponse struct {
	ApproverDelegationDigestHash string `json:"approver_delegation_digest_hash"`
}

type IsSaltSpentResponse bool

type CumulativeWithdrawalsQueuedResponse struct {
	CumulativeWithdrawals uint64 `json:"cumulative_withdrawals"`
}
