package slashmanager

import (
	"encoding/json"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/types"
	vaultrouter "github.com/satlayer/satlayer-restaking/vault-router"
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

// Null when the id is unknown.
type SlashingRequestResponse *SlashingRequest

// Empty when the pair has no active request.
type SlashingRequestIDResponse string

type SlashingLockedResponse []vaultrouter.LockedAmount

// Empty when no guardrail is configured.
type GuardrailResponse string

type InstantiateMsg struct {
	Owner string `json:"owner"`
	// Optional guardrail whose approval is required to finalize.
	Guardrail *string `json:"guardrail,omitempty"`
}

// ExecuteMsg RequestSlashing opens a slashing request against `operator`. Only a service
// with an active registration to the operator at `timestamp`, slashing enabled and the
// operator opted in can call this message. `bips` cannot exceed the service's
// `max_slashing_bips`. The id of the request is returned as the `slashing_request_id`
// attribute.
//
// ExecuteMsg SlashingLock moves the slashable assets of the operator into router custody.
// Only the requesting service can call this message, while the request is `Requested` and not
// expired.
//
// ExecuteMsg SlashingFinalize sends the locked assets to the service's slashing destination,
// or burns them. Requires the guardrail proposal to have passed when a guardrail is
// configured.
//
// ExecuteMsg SlashingCancel cancels a `Requested` request. Callable by the requesting
// service or the guardrail.
//
// ExecuteMsg SetGuardrail sets or clears the guardrail. Only the `owner` can call this
// message.
//
// ExecuteMsg TransferOwnership See [`ownership.TransferOwnership`] for more information on
// this field
type ExecuteMsg struct {
	RequestSlashing   *RequestSlashingPayload      `json:"request_slashing,omitempty"`
	SlashingLock      *SlashingRequestRef          `json:"slashing_lock,omitempty"`
	SlashingFinalize  *SlashingRequestRef          `json:"slashing_finalize,omitempty"`
	SlashingCancel    *SlashingRequestRef          `json:"slashing_cancel,omitempty"`
	SetGuardrail      *SetGuardrail                `json:"set_guardrail,omitempty"`
	TransferOwnership *ownership.TransferOwnership `json:"transfer_ownership,omitempty"`
	AcceptOwnership   *ownership.AcceptOwnership   `json:"accept_ownership,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.RequestSlashing != nil:
		return "request_slashing"
	case m.SlashingLock != nil:
		return "slashing_lock"
	case m.SlashingFinalize != nil:
		return "slashing_finalize"
	case m.SlashingCancel != nil:
		return "slashing_cancel"
	case m.SetGuardrail != nil:
		return "set_guardrail"
	case m.TransferOwnership != nil:
		return "transfer_ownership"
	case m.AcceptOwnership != nil:
		return "accept_ownership"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(m.RequestSlashing != nil, m.SlashingLock != nil, m.SlashingFinalize != nil,
		m.SlashingCancel != nil, m.SetGuardrail != nil, m.TransferOwnership != nil, m.AcceptOwnership != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type RequestSlashingPayload struct {
	Operator string `json:"operator"`
	// Share of the operator's delegated assets to slash, in basis points.
	Bips uint16 `json:"bips"`
	// Unix seconds of the misconduct.
	Timestamp int64    `json:"timestamp"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata struct {
	// At most 250 characters.
	Reason string `json:"reason"`
}

type SlashingRequestRef struct {
	SlashingRequestID string `json:"slashing_request_id"`
}

type SetGuardrail struct {
	Guardrail *string `json:"guardrail"`
}

// QueryMsg SlashingRequest: returns the slashing request by id.
//
// QueryMsg SlashingRequestID: returns the id of the active request for (service, operator).
//
// QueryMsg SlashingLocked: returns the assets held in custody for the request.
//
// QueryMsg Guardrail: returns the configured guardrail.
type QueryMsg struct {
	SlashingRequest   *SlashingRequestRef `json:"slashing_request,omitempty"`
	SlashingRequestID *SlashingRequestID  `json:"slashing_request_id,omitempty"`
	SlashingLocked    *SlashingRequestRef `json:"slashing_locked,omitempty"`
	Guardrail         *GuardrailQuery     `json:"guardrail,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.SlashingRequest != nil, m.SlashingRequestID != nil, m.SlashingLocked != nil,
		m.Guardrail != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type SlashingRequestID struct {
	Service  string `json:"service"`
	Operator string `json:"operator"`
}

type GuardrailQuery struct {
}
