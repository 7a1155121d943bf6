package bank

import (
	"encoding/json"

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

type BalanceResponse string

type AllowanceResponse string

type SupplyResponse string

type InstantiateMsg struct {
	// The only address allowed to mint.
	Minter string `json:"minter"`
}

// ExecuteMsg Transfer moves `amount` of `denom` from the sender to `recipient`.
//
// ExecuteMsg IncreaseAllowance allows `spender` to move an additional `amount` of the
// sender's `denom` with TransferFrom.
//
// ExecuteMsg Mint creates new units. Only the `minter` can call this message.
//
// ExecuteMsg Burn destroys units held by the sender.
type ExecuteMsg struct {
	Transfer          *Transfer          `json:"transfer,omitempty"`
	IncreaseAllowance *IncreaseAllowance `json:"increase_allowance,omitempty"`
	Mint              *Mint              `json:"mint,omitempty"`
	Burn              *Burn              `json:"burn,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.Transfer != nil:
		return "transfer"
	case m.IncreaseAllowance != nil:
		return "increase_allowance"
	case m.Mint != nil:
		return "mint"
	case m.Burn != nil:
		return "burn"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(m.Transfer != nil, m.IncreaseAllowance != nil, m.Mint != nil, m.Burn != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type Transfer struct {
	Amount    num.Uint128 `json:"amount"`
	Denom     string      `json:"denom"`
	Recipient string      `json:"recipient"`
}

type IncreaseAllowance struct {
	Amount  num.Uint128 `json:"amount"`
	Denom   string      `json:"denom"`
	Spender string      `json:"spender"`
}

type Mint struct {
	Amount    num.Uint128 `json:"amount"`
	Denom     string      `json:"denom"`
	Recipient string      `json:"recipient"`
}

type Burn struct {
	Amount num.Uint128 `json:"amount"`
	Denom  string      `json:"denom"`
}

type QueryMsg struct {
	Balance   *Balance   `json:"balance,omitempty"`
	Allowance *Allowance `json:"allowance,omitempty"`
	Supply    *Supply    `json:"supply,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.Balance != nil, m.Allowance != nil, m.Supply != nil) {
		return types.ErrNoVariant
	}
	return nil
}

type Balance struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
}

type Allowance struct {
	Denom   string `json:"denom"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type Supply struct {
	Denom string `json:"denom"`
}
