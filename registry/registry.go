// Package registry is the directory of operators and services: who is
// registered, which operator-service pairs are active, and the slashing
// parameters each service has enabled. Every relationship is versioned by
// block time so slashing can be validated retroactively.
package registry

import (
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

type RegistrationStatus int64

const (
	Inactive           RegistrationStatus = 0
	Active             RegistrationStatus = 1
	OperatorRegistered RegistrationStatus = 2
	ServiceRegistered  RegistrationStatus = 3
)

const MaxBips = 10_000

type Pauser interface {
	AssertCanExecute(contract, sender, method string) error
}

type Registry struct {
	address   string
	pauser    Pauser
	ownership ownership.Ownership

	services      store.Map[bool]
	operators     store.Map[bool]
	status        store.SnapshotMap[RegistrationStatus]
	activeCount   store.Map[uint64]
	slashing      store.SnapshotMap[SlashingParameters]
	slashingOptIn store.SnapshotMap[bool]
}

func New(s store.KVStore, address string, pauser Pauser) *Registry {
	return &Registry{
		address:       address,
		pauser:        pauser,
		ownership:     ownership.New(s),
		services:      store.NewMap[bool](s, "services"),
		operators:     store.NewMap[bool](s, "operators"),
		status:        store.NewSnapshotMap[RegistrationStatus](s, "registration_status"),
		activeCount:   store.NewMap[uint64](s, "active_registrations"),
		slashing:      store.NewSnapshotMap[SlashingParameters](s, "slashing_parameters"),
		slashingOptIn: store.NewSnapshotMap[bool](s, "slashing_opt_in"),
	}
}

func (r *Registry) Address() string {
	return r.address
}

func (r *Registry) Instantiate(msg InstantiateMsg) error {
	return r.ownership.Init(msg.Owner)
}

func (r *Registry) Execute(env types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := r.pauser.AssertCanExecute(env.Contract.Address, info.Sender, msg.Method()); err != nil {
		return nil, err
	}
	now := env.Block.Time.Unix()

	switch {
	case msg.RegisterAsService != nil:
		return r.register(r.services, "ServiceRegistered", "service", info.Sender, msg.RegisterAsService.Metadata)
	case msg.UpdateServiceMetadata != nil:
		return r.updateMetadata(r.services, "ServiceMetadataUpdated", "service", info.Sender, *msg.UpdateServiceMetadata)
	case msg.RegisterAsOperator != nil:
		return r.register(r.operators, "OperatorRegistered", "operator", info.Sender, msg.RegisterAsOperator.Metadata)
	case msg.UpdateOperatorMetadata != nil:
		return r.updateMetadata(r.operators, "OperatorMetadataUpdated", "operator", info.Sender, *msg.UpdateOperatorMetadata)
	case msg.RegisterOperatorToService != nil:
		return r.registerPair(now, info.Sender, msg.RegisterOperatorToService.Operator, true)
	case msg.RegisterServiceToOperator != nil:
		return r.registerPair(now, msg.RegisterServiceToOperator.Service, info.Sender, false)
	case msg.DeregisterOperatorFromService != nil:
		return r.deregisterPair(now, info.Sender, msg.DeregisterOperatorFromService.Operator)
	case msg.DeregisterServiceFromOperator != nil:
		return r.deregisterPair(now, msg.DeregisterServiceFromOperator.Service, info.Sender)
	case msg.EnableSlashing != nil:
		return r.enableSlashing(now, info.Sender, msg.EnableSlashing.SlashingParameters)
	case msg.DisableSlashing != nil:
		return r.disableSlashing(now, info.Sender)
	case msg.OperatorOptInToSlashing != nil:
		return r.optIn(now, msg.OperatorOptInToSlashing.Service, info.Sender)
	case msg.TransferOwnership != nil:
		return r.ownership.Transfer(info.Sender, *msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return r.ownership.Accept(info.Sender)
	}
	return nil, types.ErrNoVariant
}

func metadataEvent(eventType, role, addr string, md Metadata) types.Event {
	event := types.NewEvent(eventType).AddAttribute(role, addr)
	if md.Name != nil {
		event = event.AddAttribute("metadata.name", *md.Name)
	}
	if md.URI != nil {
		event = event.AddAttribute("metadata.uri", *md.URI)
	}
	return event
}

func (r *Registry) register(m store.Map[bool], eventType, role, sender string, md Metadata) (*types.Response, error) {
	exists, err := m.Has(sender)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "%s %s", role, sender)
	}
	if err := m.Save(sender, true); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(metadataEvent(eventType, role, sender, md)), nil
}

func (r *Registry) updateMetadata(m store.Map[bool], eventType, role, sender string, md Metadata) (*types.Response, error) {
	exists, err := m.Has(sender)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "%s %s", role, sender)
	}
	return types.NewResponse().AddEvent(metadataEvent(eventType, role, sender, md)), nil
}

func (r *Registry) assertRegistered(service, operator string) error {
	if ok, err := r.IsService(service); err != nil {
		return err
	} else if !ok {
		return errorsmod.Wrapf(types.ErrNotFound, "service %s", service)
	}
	if ok, err := r.IsOperator(operator); err != nil {
		return err
	} else if !ok {
		return errorsmod.Wrapf(types.ErrNotFound, "operator %s", operator)
	}
	return nil
}

// registerPair records one side of a registration. Both sides registering
// makes the pair Active.
func (r *Registry) registerPair(now int64, service, operator string, byService bool) (*types.Response, error) {
	if err := r.assertRegistered(service, operator); err != nil {
		return nil, err
	}
	key := store.Key(service, operator)
	current, _, err := r.status.MayLoad(key)
	if err != nil {
		return nil, err
	}

	var next RegistrationStatus
	switch {
	case current == Active:
		return nil, errorsmod.Wrap(types.ErrAlreadyExists, "registration is already active")
	case current == Inactive && byService:
		next = ServiceRegistered
	case current == Inactive:
		next = OperatorRegistered
	case current == OperatorRegistered && byService, current == ServiceRegistered && !byService:
		next = Active
	default:
		return nil, errorsmod.Wrap(types.ErrAlreadyExists, "registration is already pending")
	}

	if err := r.status.Save(key, now, next); err != nil {
		return nil, err
	}
	if next == Active {
		if err := r.adjustActive(operator, true); err != nil {
			return nil, err
		}
	}

	eventType := "RegisterOperatorToService"
	if !byService {
		eventType = "RegisterServiceToOperator"
	}
	return types.NewResponse().AddEvent(types.NewEvent(eventType).
		AddAttribute("service", service).
		AddAttribute("operator", operator).
		AddAttribute("status", statusName(next))), nil
}

func (r *Registry) deregisterPair(now int64, service, operator string) (*types.Response, error) {
	key := store.Key(service, operator)
	current, _, err := r.status.MayLoad(key)
	if err != nil {
		return nil, err
	}
	if current == Inactive {
		return nil, errorsmod.Wrap(types.ErrNotFound, "no registration to deregister")
	}
	if err := r.status.Save(key, now, Inactive); err != nil {
		return nil, err
	}
	if current == Active {
		if err := r.adjustActive(operator, false); err != nil {
			return nil, err
		}
	}
	if _, optedIn, err := r.slashingOptIn.MayLoad(key); err != nil {
		return nil, err
	} else if optedIn {
		if err := r.slashingOptIn.Remove(key, now); err != nil {
			return nil, err
		}
	}
	return types.NewResponse().AddEvent(types.NewEvent("Deregistered").
		AddAttribute("service", service).
		AddAttribute("operator", operator)), nil
}

func (r *Registry) adjustActive(operator string, increment bool) error {
	count, _, err := r.activeCount.MayLoad(operator)
	if err != nil {
		return err
	}
	if increment {
		count++
	} else {
		if count == 0 {
			return errorsmod.Wrapf(types.ErrUnderflow, "active registrations of %s", operator)
		}
		count--
	}
	return r.activeCount.Save(operator, count)
}

func (r *Registry) enableSlashing(now int64, service string, params SlashingParameters) (*types.Response, error) {
	if ok, err := r.IsService(service); err != nil {
		return nil, err
	} else if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "service %s", service)
	}
	if params.MaxSlashingBips == 0 || params.MaxSlashingBips > MaxBips {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "max_slashing_bips %d must be within 1..%d", params.MaxSlashingBips, MaxBips)
	}
	if params.ResolutionWindow <= 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "resolution_window must be positive")
	}
	if params.Destination != nil {
		if err := types.ValidateAddress(*params.Destination); err != nil {
			return nil, err
		}
	}
	if err := r.slashing.Save(service, now, params); err != nil {
		return nil, err
	}
	event := types.NewEvent("SlashingParametersEnabled").
		AddAttribute("service", service).
		AddAttribute("max_slashing_bips", strconv.FormatUint(uint64(params.MaxSlashingBips), 10)).
		AddAttribute("resolution_window", strconv.FormatInt(params.ResolutionWindow, 10))
	if params.Destination != nil {
		event = event.AddAttribute("destination", *params.Destination)
	}
	return types.NewResponse().AddEvent(event), nil
}

func (r *Registry) disableSlashing(now int64, service string) (*types.Response, error) {
	_, enabled, err := r.slashing.MayLoad(service)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "slashing is not enabled for %s", service)
	}
	if err := r.slashing.Remove(service, now); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("SlashingParametersDisabled").
		AddAttribute("service", service)), nil
}

func (r *Registry) optIn(now int64, service, operator string) (*types.Response, error) {
	key := store.Key(service, operator)
	status, _, err := r.status.MayLoad(key)
	if err != nil {
		return nil, err
	}
	if status != Active {
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "registration is not active")
	}
	if _, enabled, err := r.slashing.MayLoad(service); err != nil {
		return nil, err
	} else if !enabled {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "slashing is not enabled for %s", service)
	}
	if err := r.slashingOptIn.Save(key, now, true); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(types.NewEvent("OperatorOptedInToSlashing").
		AddAttribute("service", service).
		AddAttribute("operator", operator)), nil
}

func (r *Registry) Query(env types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	at := func(ts *int64) time.Time {
		if ts == nil {
			return env.Block.Time
		}
		return time.Unix(*ts, 0)
	}

	switch {
	case msg.Status != nil:
		status, err := r.Status(msg.Status.Service, msg.Status.Operator, at(msg.Status.Timestamp))
		return StatusResponse(status), err
	case msg.IsService != nil:
		ok, err := r.IsService(*msg.IsService)
		return IsServiceResponse(ok), err
	case msg.IsOperator != nil:
		ok, err := r.IsOperator(*msg.IsOperator)
		return IsOperatorResponse(ok), err
	case msg.IsOperatorActive != nil:
		ok, err := r.IsOperatorActive(*msg.IsOperatorActive)
		return IsOperatorActiveResponse(ok), err
	case msg.SlashingParameters != nil:
		params, enabled, err := r.SlashingParameters(msg.SlashingParameters.Service, at(msg.SlashingParameters.Timestamp))
		if err != nil {
			return nil, err
		}
		res := SlashingParametersResponse{Enabled: enabled}
		if enabled {
			res.Parameters = &params
		}
		return res, nil
	case msg.IsOperatorOptedInToSlashing != nil:
		q := msg.IsOperatorOptedInToSlashing
		ok, err := r.IsOperatorOptedInToSlashing(q.Service, q.Operator, at(q.Timestamp))
		return IsOperatorOptedInToSlashingResponse(ok), err
	}
	return nil, types.ErrNoVariant
}

func (r *Registry) IsService(addr string) (bool, error) {
	return r.services.Has(addr)
}

func (r *Registry) IsOperator(addr string) (bool, error) {
	return r.operators.Has(addr)
}

// IsOperatorActive reports whether the operator has at least one active
// registration right now.
func (r *Registry) IsOperatorActive(operator string) (bool, error) {
	count, _, err := r.activeCount.MayLoad(operator)
	return count > 0, err
}

func (r *Registry) Status(service, operator string, at time.Time) (RegistrationStatus, error) {
	status, _, err := r.status.MayLoadAt(store.Key(service, operator), at.Unix())
	return status, err
}

func (r *Registry) IsServiceActiveRegistration(service, operator string, at time.Time) (bool, error) {
	status, err := r.Status(service, operator, at)
	return status == Active, err
}

// SlashingParameters returns the parameters in force at the given time.
func (r *Registry) SlashingParameters(service string, at time.Time) (SlashingParameters, bool, error) {
	return r.slashing.MayLoadAt(service, at.Unix())
}

func (r *Registry) IsOperatorOptedInToSlashing(service, operator string, at time.Time) (bool, error) {
	ok, _, err := r.slashingOptIn.MayLoadAt(store.Key(service, operator), at.Unix())
	return ok, err
}

func statusName(s RegistrationStatus) string {
	switch s {
	case Active:
		return "Active"
	case OperatorRegistered:
		return "OperatorRegistered"
	case ServiceRegistered:
		return "ServiceRegistered"
	default:
		return "Inactive"
	}
}
