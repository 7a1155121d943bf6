// Package slashmanager is the slashing request registry. A service requests
// slashing of an operator it has an active registration with, locks the
// slashable assets into router custody, and finalizes the request to move
// them to the slashing destination. Requests expire after twice the service's
// resolution window, and an expired Locked request hands its custody back to
// the vaults when cancelled.
package slashmanager

import (
	"strconv"
	"time"
	"unicode/utf8"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/registry"
	vaultrouter "github.com/satlayer/satlayer-restaking/vault-router"
)

// MaxReasonLength bounds metadata.reason, in characters.
const MaxReasonLength = 250

type Pauser interface {
	AssertCanExecute(contract, sender, method string) error
}

type Registry interface {
	IsServiceActiveRegistration(service, operator string, at time.Time) (bool, error)
	SlashingParameters(service string, at time.Time) (registry.SlashingParameters, bool, error)
	IsOperatorOptedInToSlashing(service, operator string, at time.Time) (bool, error)
}

type Router interface {
	WithdrawalLockPeriod() (time.Duration, error)
	LockSlashing(caller, id, operator string, bips uint16) ([]vaultrouter.LockedAmount, error)
	FinalizeSlashing(caller, id string, destination *string) ([]vaultrouter.LockedAmount, error)
	SlashLocked(id string) ([]vaultrouter.LockedAmount, bool, error)
	UnlockSlashing(caller, id string) ([]vaultrouter.LockedAmount, error)
}

// Guardrail approves slashing requests before they can be finalized.
type Guardrail interface {
	ProposalPassed(slashingRequestID string, at time.Time) (bool, error)
}

// GuardrailResolver finds a guardrail by address.
type GuardrailResolver func(address string) (Guardrail, bool)

type SlashManager struct {
	address   string
	pauser    Pauser
	registry  Registry
	router    Router
	resolve   GuardrailResolver
	ownership ownership.Ownership

	requests  store.Map[SlashingRequest]
	latest    store.Map[string]
	sequences store.Map[uint64]
	guardrail store.Item[string]
}

func New(s store.KVStore, address string, pauser Pauser, registry Registry, router Router, resolve GuardrailResolver) *SlashManager {
	return &SlashManager{
		address:   address,
		pauser:    pauser,
		registry:  registry,
		router:    router,
		resolve:   resolve,
		ownership: ownership.New(s),
		requests:  store.NewMap[SlashingRequest](s, "slashing_requests"),
		latest:    store.NewMap[string](s, "slashing_request_ids"),
		sequences: store.NewMap[uint64](s, "slashing_request_seq"),
		guardrail: store.NewItem[string](s, "guardrail"),
	}
}

func (m *SlashManager) Address() string {
	return m.address
}

func (m *SlashManager) Instantiate(msg InstantiateMsg) error {
	if err := m.ownership.Init(msg.Owner); err != nil {
		return err
	}
	if msg.Guardrail != nil {
		return m.setGuardrail(*msg.Guardrail)
	}
	return nil
}

func (m *SlashManager) Execute(env types.Env, info types.MessageInfo, msg ExecuteMsg) (*types.Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := m.pauser.AssertCanExecute(m.address, info.Sender, msg.Method()); err != nil {
		return nil, err
	}

	switch {
	case msg.RequestSlashing != nil:
		return m.requestSlashing(env, info.Sender, *msg.RequestSlashing)
	case msg.SlashingLock != nil:
		return m.lock(env, info.Sender, msg.SlashingLock.SlashingRequestID)
	case msg.SlashingFinalize != nil:
		return m.finalize(env, info.Sender, msg.SlashingFinalize.SlashingRequestID)
	case msg.SlashingCancel != nil:
		return m.cancel(env, info.Sender, msg.SlashingCancel.SlashingRequestID)
	case msg.SetGuardrail != nil:
		return m.ownerSetGuardrail(info.Sender, msg.SetGuardrail.Guardrail)
	case msg.TransferOwnership != nil:
		return m.ownership.Transfer(info.Sender, *msg.TransferOwnership)
	case msg.AcceptOwnership != nil:
		return m.ownership.Accept(info.Sender)
	}
	return nil, types.ErrNoVariant
}

func (m *SlashManager) validateRequest(env types.Env, service string, p RequestSlashingPayload) (registry.SlashingParameters, error) {
	if utf8.RuneCountInString(p.Metadata.Reason) > MaxReasonLength {
		return registry.SlashingParameters{}, errorsmod.Wrapf(types.ErrReasonTooLong, "reason exceeds %d characters", MaxReasonLength)
	}
	if p.Bips == 0 {
		return registry.SlashingParameters{}, errorsmod.Wrap(types.ErrZero, "bips is zero")
	}

	lockPeriod, err := m.router.WithdrawalLockPeriod()
	if err != nil {
		return registry.SlashingParameters{}, err
	}
	now := env.Block.Time.Unix()
	if p.Timestamp > now || p.Timestamp <= now-int64(lockPeriod/time.Second) {
		return registry.SlashingParameters{}, errorsmod.Wrapf(types.ErrInvalidInput,
			"timestamp %d outside (%d, %d]", p.Timestamp, now-int64(lockPeriod/time.Second), now)
	}
	at := time.Unix(p.Timestamp, 0)

	active, err := m.registry.IsServiceActiveRegistration(service, p.Operator, at)
	if err != nil {
		return registry.SlashingParameters{}, err
	}
	if !active {
		return registry.SlashingParameters{}, errorsmod.Wrapf(types.ErrUnauthorized,
			"%s and %s had no active registration at %d", service, p.Operator, p.Timestamp)
	}
	params, enabled, err := m.registry.SlashingParameters(service, at)
	if err != nil {
		return registry.SlashingParameters{}, err
	}
	if !enabled {
		return registry.SlashingParameters{}, errorsmod.Wrapf(types.ErrNotFound, "%s had slashing disabled at %d", service, p.Timestamp)
	}
	if p.Bips > params.MaxSlashingBips {
		return registry.SlashingParameters{}, errorsmod.Wrapf(types.ErrInvalidInput,
			"bips %d exceeds max_slashing_bips %d", p.Bips, params.MaxSlashingBips)
	}
	optedIn, err := m.registry.IsOperatorOptedInToSlashing(service, p.Operator, at)
	if err != nil {
		return registry.SlashingParameters{}, err
	}
	if !optedIn {
		return registry.SlashingParameters{}, errorsmod.Wrapf(types.ErrUnauthorized,
			"%s had not opted in to slashing by %s at %d", p.Operator, service, p.Timestamp)
	}
	return params, nil
}

func (m *SlashManager) requestSlashing(env types.Env, service string, p RequestSlashingPayload) (*types.Response, error) {
	if err := types.ValidateAddress(p.Operator); err != nil {
		return nil, err
	}
	params, err := m.validateRequest(env, service, p)
	if err != nil {
		return nil, err
	}

	pair := store.Key(service, p.Operator)
	if current, ok, err := m.activeRequest(pair, env.Block.Time); err != nil {
		return nil, err
	} else if ok {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "slashing request %s is still active", current)
	}

	seq, _, err := m.sequences.MayLoad(pair)
	if err != nil {
		return nil, err
	}
	now := env.Block.Time.Unix()
	req := SlashingRequest{
		Request:       p,
		Service:       service,
		Destination:   params.Destination,
		RequestTime:   now,
		RequestExpiry: now + 2*params.ResolutionWindow,
		Status:        Requested,
		Sequence:      seq,
	}
	id, err := RequestID(req)
	if err != nil {
		return nil, err
	}
	if exists, err := m.requests.Has(id); err != nil {
		return nil, err
	} else if exists {
		return nil, errorsmod.Wrapf(types.ErrAlreadyExists, "slashing request %s", id)
	}
	if err := m.requests.Save(id, req); err != nil {
		return nil, err
	}
	if err := m.latest.Save(pair, id); err != nil {
		return nil, err
	}
	if err := m.sequences.Save(pair, seq+1); err != nil {
		return nil, err
	}

	return types.NewResponse().
		AddAttribute("slashing_request_id", id).
		AddEvent(types.NewEvent("SlashingRequested").
			AddAttribute("slashing_request_id", id).
			AddAttribute("service", service).
			AddAttribute("operator", p.Operator).
			AddAttribute("bips", strconv.FormatUint(uint64(p.Bips), 10)).
			AddAttribute("timestamp", strconv.FormatInt(p.Timestamp, 10)).
			AddAttribute("request_expiry", strconv.FormatInt(req.RequestExpiry, 10)).
			AddAttribute("reason", p.Metadata.Reason)).
		SetData([]byte(id)), nil
}

// activeRequest returns the id of the active request for the pair, if any.
func (m *SlashManager) activeRequest(pair string, now time.Time) (string, bool, error) {
	id, ok, err := m.latest.MayLoad(pair)
	if err != nil || !ok {
		return "", false, err
	}
	req, err := m.requests.Load(id)
	if err != nil {
		return "", false, err
	}
	return id, req.Active(now), nil
}

// loadForService loads the request and checks that sender is its service.
func (m *SlashManager) loadForService(sender, id string) (SlashingRequest, error) {
	req, ok, err := m.requests.MayLoad(id)
	if err != nil {
		return SlashingRequest{}, err
	}
	if !ok {
		return SlashingRequest{}, errorsmod.Wrapf(types.ErrNotFound, "slashing request %s", id)
	}
	if sender != req.Service {
		return SlashingRequest{}, errorsmod.Wrap(types.ErrUnauthorized, "only the requesting service can act on the request")
	}
	return req, nil
}

func statusEvent(eventType, id string, req SlashingRequest) types.Event {
	return types.NewEvent(eventType).
		AddAttribute("slashing_request_id", id).
		AddAttribute("service", req.Service).
		AddAttribute("operator", req.Request.Operator)
}

func lockedEvent(eventType, id string, req SlashingRequest, amounts []vaultrouter.LockedAmount) types.Event {
	e := statusEvent(eventType, id, req)
	for _, a := range amounts {
		e = e.AddAttribute("vault", a.Vault).AddAttribute("amount", a.Amount.String())
	}
	return e
}

func (m *SlashManager) lock(env types.Env, sender, id string) (*types.Response, error) {
	req, err := m.loadForService(sender, id)
	if err != nil {
		return nil, err
	}
	if req.Status != Requested {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "slashing request is %s", req.Status)
	}
	if req.Expired(env.Block.Time) {
		return nil, errorsmod.Wrapf(types.ErrExpired, "slashing request expired at %d", req.RequestExpiry)
	}

	amounts, err := m.router.LockSlashing(m.address, id, req.Request.Operator, req.Request.Bips)
	if err != nil {
		return nil, err
	}
	req.Status = Locked
	if err := m.requests.Save(id, req); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(lockedEvent("SlashingLocked", id, req, amounts)), nil
}

func (m *SlashManager) finalize(env types.Env, sender, id string) (*types.Response, error) {
	req, err := m.loadForService(sender, id)
	if err != nil {
		return nil, err
	}
	if req.Status != Locked {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "slashing request is %s", req.Status)
	}
	if req.Expired(env.Block.Time) {
		return nil, errorsmod.Wrapf(types.ErrExpired, "slashing request expired at %d", req.RequestExpiry)
	}
	if err := m.assertGuardrailPassed(id, env.Block.Time); err != nil {
		return nil, err
	}

	amounts, err := m.router.FinalizeSlashing(m.address, id, req.Destination)
	if err != nil {
		return nil, err
	}
	req.Status = Finalized
	if err := m.requests.Save(id, req); err != nil {
		return nil, err
	}
	e := lockedEvent("SlashingFinalized", id, req, amounts)
	if req.Destination != nil {
		e = e.AddAttribute("destination", *req.Destination)
	}
	return types.NewResponse().AddEvent(e), nil
}

func (m *SlashManager) assertGuardrailPassed(id string, now time.Time) error {
	addr, ok, err := m.guardrail.MayLoad()
	if err != nil || !ok {
		return err
	}
	g, found := m.resolve(addr)
	if !found {
		return errorsmod.Wrapf(types.ErrUnknownContract, "guardrail %s", addr)
	}
	passed, err := g.ProposalPassed(id, now)
	if err != nil {
		return err
	}
	if !passed {
		return errorsmod.Wrap(types.ErrUnauthorized, "guardrail has not approved the slashing request")
	}
	return nil
}

// cancel ends a request. The service or the guardrail can cancel before
// lock. A Locked request is cancelled by a guardrail veto, or by anyone once it
// has expired, and its custody goes back to the vaults.
func (m *SlashManager) cancel(env types.Env, sender, id string) (*types.Response, error) {
	req, ok, err := m.requests.MayLoad(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "slashing request %s", id)
	}
	guardrail, _, err := m.guardrail.MayLoad()
	if err != nil {
		return nil, err
	}
	byGuardrail := guardrail != "" && sender == guardrail

	switch req.Status {
	case Requested:
		if sender != req.Service && !byGuardrail {
			return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the requesting service or the guardrail can cancel")
		}
	case Locked:
		if byGuardrail || req.Expired(env.Block.Time) {
			break
		}
		if sender == req.Service {
			return nil, errorsmod.Wrapf(types.ErrInvalidInput, "slashing request is %s until %d", req.Status, req.RequestExpiry)
		}
		return nil, errorsmod.Wrap(types.ErrUnauthorized, "only the guardrail can cancel a locked request before expiry")
	default:
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "slashing request is %s", req.Status)
	}

	var amounts []vaultrouter.LockedAmount
	if req.Status == Locked {
		if amounts, err = m.router.UnlockSlashing(m.address, id); err != nil {
			return nil, err
		}
	}
	req.Status = Cancelled
	if err := m.requests.Save(id, req); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(lockedEvent("SlashingCancelled", id, req, amounts).
		AddAttribute("sender", sender)), nil
}

func (m *SlashManager) setGuardrail(addr string) error {
	if err := types.ValidateAddress(addr); err != nil {
		return err
	}
	if _, ok := m.resolve(addr); !ok {
		return errorsmod.Wrapf(types.ErrUnknownContract, "guardrail %s", addr)
	}
	return m.guardrail.Save(addr)
}

func (m *SlashManager) ownerSetGuardrail(sender string, addr *string) (*types.Response, error) {
	if err := m.ownership.AssertOwner(sender); err != nil {
		return nil, err
	}
	e := types.NewEvent("GuardrailUpdated")
	if addr == nil {
		if err := m.guardrail.Remove(); err != nil {
			return nil, err
		}
		return types.NewResponse().AddEvent(e), nil
	}
	if err := m.setGuardrail(*addr); err != nil {
		return nil, err
	}
	return types.NewResponse().AddEvent(e.AddAttribute("guardrail", *addr)), nil
}

func (m *SlashManager) Query(env types.Env, msg QueryMsg) (any, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case msg.SlashingRequest != nil:
		req, ok, err := m.SlashingRequest(msg.SlashingRequest.SlashingRequestID)
		if err != nil || !ok {
			return SlashingRequestResponse(nil), err
		}
		return SlashingRequestResponse(&req), nil
	case msg.SlashingRequestID != nil:
		q := msg.SlashingRequestID
		id, ok, err := m.activeRequest(store.Key(q.Service, q.Operator), env.Block.Time)
		if err != nil || !ok {
			return SlashingRequestIDResponse(""), err
		}
		return SlashingRequestIDResponse(id), nil
	case msg.SlashingLocked != nil:
		amounts, _, err := m.router.SlashLocked(msg.SlashingLocked.SlashingRequestID)
		return SlashingLockedResponse(amounts), err
	case msg.Guardrail != nil:
		addr, _, err := m.guardrail.MayLoad()
		return GuardrailResponse(addr), err
	}
	return nil, types.ErrNoVariant
}

func (m *SlashManager) SlashingRequest(id string) (SlashingRequest, bool, error) {
	return m.requests.MayLoad(id)
}

func (m *SlashManager) Owner() (string, error) {
	return m.ownership.Owner()
}
