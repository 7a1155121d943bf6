package pauser

import (
	"encoding/json"

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

// CanExecuteResponse is 0 when the call may proceed and 1 when it is paused.
type CanExecuteResponse int64

type IsPausedResponse int64

const (
	CanExecuteFlagAllow  CanExecuteResponse = 0
	CanExecuteFlagPaused CanExecuteResponse = 1
)

type InstantiateMsg struct {
	// Owner of this contract, who can pause and unpause
	Owner string `json:"owner"`
	// Start with every contract paused.
	InitialPaused bool `json:"initial_paused"`
}

// Callable by the owner of the pauser contract
type ExecuteMsg struct {
	Pause                   *Pause                             `json:"pause,omitempty"`
	Unpause                 *Unpause                           `json:"unpause,omitempty"`
	PauseAll                *PauseAll                          `json:"pause_all,omitempty"`
	UnpauseAll              *UnpauseAll                        `json:"unpause_all,omitempty"`
	TransferOwnership       *ownership.TransferOwnership       `json:"transfer_ownership,omitempty"`
	AcceptOwnership         *ownership.AcceptOwnership         `json:"accept_ownership,omitempty"`
	CancelOwnershipTransfer *ownership.CancelOwnershipTransfer `json:"cancel_ownership_transfer,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.Pause != nil:
		return "pause"
	case m.Unpause != nil:
		return "unpause"
	case m.PauseAll != nil:
		return "pause_all"
	case m.UnpauseAll != nil:
		return "unpause_all"
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
	if !types.ExactlyOne(m.Pause != nil, m.Unpause != nil, m.PauseAll != nil, m.UnpauseAll != nil,
		m.TransferOwnership != nil, m.AcceptOwnership != nil, m.CancelOwnershipTransfer != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type Pause struct {
	// address of the contract to be paused
	Contract string `json:"contract"`
	// method of a particular contract to be paused
	Method string `json:"method"`
}

type Unpause struct {
	// address of the contract to be unpaused
	Contract string `json:"contract"`
	// method of a particular contract to be unpaused
	Method string `json:"method"`
}

type PauseAll struct {
}

type UnpauseAll struct {
}

type QueryMsg struct {
	IsPaused   *IsPaused   `json:"is_paused,omitempty"`
	CanExecute *CanExecute `json:"can_execute,omitempty"`
	Owner      *Owner      `json:"owner,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.IsPaused != nil, m.CanExecute != nil, m.Owner != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type CanExecute struct {
	// The (contract: Addr) calling this
	C string `json:"c"`
	// The (method: ExecuteMsg) to check if it is paused
	M string `json:"m"`
	// The (sender: Addr) of the message
	S string `json:"s"`
}

type IsPaused struct {
	// The (contract: Addr) calling this
	C string `json:"c"`
	// The (method: ExecuteMsg) to check if it is paused
	M string `json:"m"`
}

type Owner struct {
}
