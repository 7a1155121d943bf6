package registry

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

type IsOperatorResponse bool

type IsOperatorActiveResponse bool

type IsServiceResponse bool

type IsOperatorOptedInToSlashingResponse bool

type StatusResponse int64

type SlashingParametersResponse struct {
	Enabled    bool                `json:"enabled"`
	Parameters *SlashingParameters `json:"parameters,omitempty"`
}

type InstantiateMsg struct {
	Owner  string `json:"owner"`
	Pauser string `json:"pauser"`
}

// ExecuteMsg EnableSlashing sets the slashing parameters of the sending service. Parameters
// are versioned by time, so a request can be validated against the parameters in force at
// the misconduct timestamp.
//
// ExecuteMsg OperatorOptInToSlashing records that the sending operator accepts the
// current slashing parameters of `service`. Requires an active registration.
type ExecuteMsg struct {
	RegisterAsService             *RegisterAsService             `json:"register_as_service,omitempty"`
	UpdateServiceMetadata         *Metadata                      `json:"update_service_metadata,omitempty"`
	RegisterAsOperator            *RegisterAsOperator            `json:"register_as_operator,omitempty"`
	UpdateOperatorMetadata        *Metadata                      `json:"update_operator_metadata,omitempty"`
	RegisterOperatorToService     *RegisterOperatorToService     `json:"register_operator_to_service,omitempty"`
	DeregisterOperatorFromService *DeregisterOperatorFromService `json:"deregister_operator_from_service,omitempty"`
	RegisterServiceToOperator     *RegisterServiceToOperator     `json:"register_service_to_operator,omitempty"`
	DeregisterServiceFromOperator *DeregisterServiceFromOperator `json:"deregister_service_from_operator,omitempty"`
	EnableSlashing                *EnableSlashing                `json:"enable_slashing,omitempty"`
	DisableSlashing               *DisableSlashing               `json:"disable_slashing,omitempty"`
	OperatorOptInToSlashing       *OperatorOptInToSlashing       `json:"operator_opt_in_to_slashing,omitempty"`
	TransferOwnership             *ownership.TransferOwnership   `json:"transfer_ownership,omitempty"`
	AcceptOwnership               *ownership.AcceptOwnership     `json:"accept_ownership,omitempty"`
}

func (m ExecuteMsg) Method() string {
	switch {
	case m.RegisterAsService != nil:
		return "register_as_service"
	case m.UpdateServiceMetadata != nil:
		return "update_service_metadata"
	case m.RegisterAsOperator != nil:
		return "register_as_operator"
	case m.UpdateOperatorMetadata != nil:
		return "update_operator_metadata"
	case m.RegisterOperatorToService != nil:
		return "register_operator_to_service"
	case m.DeregisterOperatorFromService != nil:
		return "deregister_operator_from_service"
	case m.RegisterServiceToOperator != nil:
		return "register_service_to_operator"
	case m.DeregisterServiceFromOperator != nil:
		return "deregister_service_from_operator"
	case m.EnableSlashing != nil:
		return "enable_slashing"
	case m.DisableSlashing != nil:
		return "disable_slashing"
	case m.OperatorOptInToSlashing != nil:
		return "operator_opt_in_to_slashing"
	case m.TransferOwnership != nil:
		return "transfer_ownership"
	case m.AcceptOwnership != nil:
		return "accept_ownership"
	}
	return ""
}

func (m ExecuteMsg) Validate() error {
	if !types.ExactlyOne(
		m.RegisterAsService != nil, m.UpdateServiceMetadata != nil,
		m.RegisterAsOperator != nil, m.UpdateOperatorMetadata != nil,
		m.RegisterOperatorToService != nil, m.DeregisterOperatorFromService != nil,
		m.RegisterServiceToOperator != nil, m.DeregisterServiceFromOperator != nil,
		m.EnableSlashing != nil, m.DisableSlashing != nil, m.OperatorOptInToSlashing != nil,
		m.TransferOwnership != nil, m.AcceptOwnership != nil,
	) {
		return types.ErrNoVariant
	}
	return nil
}

type DeregisterOperatorFromService struct {
	Operator string `json:"operator"`
}

type DeregisterServiceFromOperator struct {
	Service string `json:"service"`
}

type RegisterAsOperator struct {
	Metadata Metadata `json:"metadata"`
}

// metadata is emitted as events and not stored.
type Metadata struct {
	Name *string `json:"name"`
	URI  *string `json:"uri"`
}

type RegisterAsService struct {
	Metadata Metadata `json:"metadata"`
}

type RegisterOperatorToService struct {
	Operator string `json:"operator"`
}

type RegisterServiceToOperator struct {
	Service string `json:"service"`
}

type EnableSlashing struct {
	SlashingParameters SlashingParameters `json:"slashing_parameters"`
}

type DisableSlashing struct {
}

type OperatorOptInToSlashing struct {
	Service string `json:"service"`
}

type SlashingParameters struct {
	// Where finalized slashed assets go. Burned when unset.
	Destination *string `json:"destination"`
	// Upper bound on the bips a single request may slash, at most 10000.
	MaxSlashingBips uint16 `json:"max_slashing_bips"`
	// Seconds a request stays actionable. A request expires after twice this window.
	ResolutionWindow int64 `json:"resolution_window"`
}

// QueryMsg Status: Returns the registration status of an operator to a service The response
// is a StatusResponse that contains a u8 value that maps to a RegistrationStatus:
//
// - 0: Inactive: Default state when neither the Operator nor the Service has registered, or
// when either has unregistered
//
// - 1: Active: State when both the Operator and Service have registered with each other,
// indicating a fully established relationship
//
// - 2: OperatorRegistered: State when only the Operator has registered but the Service
// hasn't yet, indicating a pending registration from the Service side
//
// - 3: ServiceRegistered: State when only the Service has registered but the Operator
// hasn't yet, indicating a pending registration from the Operator side
type QueryMsg struct {
	Status                      *Status                      `json:"status,omitempty"`
	IsService                   *string                      `json:"is_service,omitempty"`
	IsOperator                  *string                      `json:"is_operator,omitempty"`
	IsOperatorActive            *string                      `json:"is_operator_active,omitempty"`
	SlashingParameters          *SlashingParametersQuery     `json:"slashing_parameters,omitempty"`
	IsOperatorOptedInToSlashing *IsOperatorOptedInToSlashing `json:"is_operator_opted_in_to_slashing,omitempty"`
}

func (m QueryMsg) Validate() error {
	if !types.ExactlyOne(m.Status != nil, m.IsService != nil, m.IsOperator != nil,
		m.IsOperatorActive != nil, m.SlashingParameters != nil, m.IsOperatorOptedInToSlashing != nil) {
		return types.ErrNoVariant
	}
	return nil
}

// Timestamps are unix seconds; nil means the current block time.
type Status struct {
	Operator  string `json:"operator"`
	Service   string `json:"service"`
	Timestamp *int64 `json:"timestamp"`
}

type SlashingParametersQuery struct {
	Service   string `json:"service"`
	Timestamp *int64 `json:"timestamp"`
}

type IsOperatorOptedInToSlashing struct {
	Operator  string `json:"operator"`
	Service   string `json:"service"`
	Timestamp *int64 `json:"timestamp"`
}
