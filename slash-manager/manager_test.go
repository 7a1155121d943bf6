package slashmanager

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/satlayer/satlayer-restaking/library/num"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/pauser"
	"github.com/satlayer/satlayer-restaking/registry"
	vaultrouter "github.com/satlayer/satlayer-restaking/vault-router"
)

const resolutionWindow = int64(24 * 60 * 60)

type lockCall struct {
	id       string
	operator string
	bips     uint16
}

type fakeRouter struct {
	lockPeriod time.Duration
	locks      []lockCall
	finalized  map[string]*string
	custody    map[string][]vaultrouter.LockedAmount
	unlocked   []string
}

func (r *fakeRouter) WithdrawalLockPeriod() (time.Duration, error) {
	return r.lockPeriod, nil
}

func (r *fakeRouter) LockSlashing(_, id, operator string, bips uint16) ([]vaultrouter.LockedAmount, error) {
	r.locks = append(r.locks, lockCall{id: id, operator: operator, bips: bips})
	amounts := []vaultrouter.LockedAmount{{Vault: "vault", Denom: "ubbn", Amount: num.NewUint128(uint64(bips))}}
	r.custody[id] = amounts
	return amounts, nil
}

func (r *fakeRouter) FinalizeSlashing(_, id string, destination *string) ([]vaultrouter.LockedAmount, error) {
	r.finalized[id] = destination
	return r.custody[id], nil
}

func (r *fakeRouter) UnlockSlashing(_, id string) ([]vaultrouter.LockedAmount, error) {
	r.unlocked = append(r.unlocked, id)
	amounts := r.custody[id]
	delete(r.custody, id)
	return amounts, nil
}

func (r *fakeRouter) SlashLocked(id string) ([]vaultrouter.LockedAmount, bool, error) {
	amounts, ok := r.custody[id]
	return amounts, ok, nil
}

type fakeGuardrail struct {
	passed map[string]bool
}

func (g *fakeGuardrail) ProposalPassed(id string, _ time.Time) (bool, error) {
	return g.passed[id], nil
}

type SlashManagerTestSuite struct {
	suite.Suite
	registry    *registry.Registry
	router      *fakeRouter
	guardrail   *fakeGuardrail
	sm          *SlashManager
	owner       string
	service     string
	operator    string
	destination string
	guardAddr   string
	start       time.Time
	now         time.Time
}

func TestSlashManager(t *testing.T) {
	suite.Run(t, new(SlashManagerTestSuite))
}

func (s *SlashManagerTestSuite) SetupTest() {
	s.owner = types.GenerateAddress("owner")
	s.service = types.GenerateAddress("service")
	s.operator = types.GenerateAddress("operator")
	s.destination = types.GenerateAddress("destination")
	s.guardAddr = types.ContractAddress("guardrail")
	s.start = time.Unix(1_700_000_000, 0).UTC()
	s.now = s.start

	kv := store.NewMemStore()
	p := pauser.New(store.Prefix(kv, "pauser"), types.ContractAddress("pauser"))
	s.Require().NoError(p.Instantiate(pauser.InstantiateMsg{Owner: s.owner}))
	s.registry = registry.New(store.Prefix(kv, "registry"), types.ContractAddress("registry"), p)
	s.Require().NoError(s.registry.Instantiate(registry.InstantiateMsg{Owner: s.owner}))

	s.router = &fakeRouter{
		lockPeriod: 7 * 24 * time.Hour,
		finalized:  map[string]*string{},
		custody:    map[string][]vaultrouter.LockedAmount{},
	}
	s.guardrail = &fakeGuardrail{passed: map[string]bool{}}
	s.sm = New(store.Prefix(kv, "slash-manager"), types.ContractAddress("slash-manager"), p, s.registry, s.router,
		func(addr string) (Guardrail, bool) {
			return s.guardrail, addr == s.guardAddr
		})
	s.Require().NoError(s.sm.Instantiate(InstantiateMsg{Owner: s.owner}))

	name := "name"
	for _, step := range []struct {
		sender string
		msg    registry.ExecuteMsg
	}{
		{s.service, registry.ExecuteMsg{RegisterAsService: &registry.RegisterAsService{Metadata: registry.Metadata{Name: &name}}}},
		{s.operator, registry.ExecuteMsg{RegisterAsOperator: &registry.RegisterAsOperator{}}},
		{s.service, registry.ExecuteMsg{RegisterOperatorToService: &registry.RegisterOperatorToService{Operator: s.operator}}},
		{s.operator, registry.ExecuteMsg{RegisterServiceToOperator: &registry.RegisterServiceToOperator{Service: s.service}}},
		{s.service, registry.ExecuteMsg{EnableSlashing: &registry.EnableSlashing{SlashingParameters: registry.SlashingParameters{
			Destination:      &s.destination,
			MaxSlashingBips:  5000,
			ResolutionWindow: resolutionWindow,
		}}}},
		{s.operator, registry.ExecuteMsg{OperatorOptInToSlashing: &registry.OperatorOptInToSlashing{Service: s.service}}},
	} {
		_, err := s.registry.Execute(s.env(), types.MessageInfo{Sender: step.sender}, step.msg)
		s.Require().NoError(err)
	}
	s.advance(time.Hour)
}

func (s *SlashManagerTestSuite) env() types.Env {
	return types.Env{Block: types.BlockInfo{Height: 1, Time: s.now}}
}

func (s *SlashManagerTestSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *SlashManagerTestSuite) payload(bips uint16) RequestSlashingPayload {
	return RequestSlashingPayload{
		Operator:  s.operator,
		Bips:      bips,
		Timestamp: s.now.Add(-time.Minute).Unix(),
		Metadata:  Metadata{Reason: "double signing"},
	}
}

func (s *SlashManagerTestSuite) execute(sender string, msg ExecuteMsg) (*types.Response, error) {
	return s.sm.Execute(s.env(), types.MessageInfo{Sender: sender}, msg)
}

func (s *SlashManagerTestSuite) request(p RequestSlashingPayload) (string, error) {
	res, err := s.execute(s.service, ExecuteMsg{RequestSlashing: &p})
	if err != nil {
		return "", err
	}
	id, _ := res.Attribute("slashing_request_id")
	return id, nil
}

func (s *SlashManagerTestSuite) status(id string) SlashingRequestStatus {
	req, ok, err := s.sm.SlashingRequest(id)
	s.Require().NoError(err)
	s.Require().True(ok)
	return req.Status
}

func (s *SlashManagerTestSuite) TestRequestValidation() {
	long := s.payload(100)
	long.Metadata.Reason = strings.Repeat("x", MaxReasonLength+1)

	future := s.payload(100)
	future.Timestamp = s.now.Add(time.Second).Unix()

	stale := s.payload(100)
	stale.Timestamp = s.now.Add(-s.router.lockPeriod).Unix()

	beforeRegistration := s.payload(100)
	beforeRegistration.Timestamp = s.start.Add(-time.Second).Unix()

	stranger := s.payload(100)
	stranger.Operator = types.GenerateAddress("stranger")

	tests := []struct {
		name    string
		payload RequestSlashingPayload
		err     error
	}{
		{"reason too long", long, types.ErrReasonTooLong},
		{"zero bips", s.payload(0), types.ErrZero},
		{"bips above max", s.payload(5001), types.ErrInvalidInput},
		{"future timestamp", future, types.ErrInvalidInput},
		{"outside lock period", stale, types.ErrInvalidInput},
		{"not registered at timestamp", beforeRegistration, types.ErrUnauthorized},
		{"no registration", stranger, types.ErrUnauthorized},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.request(tt.payload)
			s.ErrorIs(err, tt.err)
		})
	}

	// a reason of exactly the maximum is accepted
	atMax := s.payload(5000)
	atMax.Metadata.Reason = strings.Repeat("é", MaxReasonLength)
	_, err := s.request(atMax)
	s.NoError(err)
}

func (s *SlashManagerTestSuite) TestRequestRequiresOptIn() {
	other := types.GenerateAddress("other-operator")
	for _, step := range []struct {
		sender string
		msg    registry.ExecuteMsg
	}{
		{other, registry.ExecuteMsg{RegisterAsOperator: &registry.RegisterAsOperator{}}},
		{s.service, registry.ExecuteMsg{RegisterOperatorToService: &registry.RegisterOperatorToService{Operator: other}}},
		{other, registry.ExecuteMsg{RegisterServiceToOperator: &registry.RegisterServiceToOperator{Service: s.service}}},
	} {
		_, err := s.registry.Execute(s.env(), types.MessageInfo{Sender: step.sender}, step.msg)
		s.Require().NoError(err)
	}
	s.advance(time.Minute)

	p := s.payload(100)
	p.Operator = other
	_, err := s.request(p)
	s.ErrorIs(err, types.ErrUnauthorized)
}

func (s *SlashManagerTestSuite) TestRequest() {
	id, err := s.request(s.payload(1000))
	s.Require().NoError(err)
	s.Len(id, 64)

	req, ok, err := s.sm.SlashingRequest(id)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(s.service, req.Service)
	s.Equal(s.now.Unix(), req.RequestTime)
	s.Equal(s.now.Unix()+2*resolutionWindow, req.RequestExpiry)
	s.Equal(&s.destination, req.Destination)
	s.Equal(Requested, req.Status)

	got, err := s.sm.Query(s.env(), QueryMsg{SlashingRequestID: &SlashingRequestID{Service: s.service, Operator: s.operator}})
	s.Require().NoError(err)
	s.Equal(SlashingRequestIDResponse(id), got)
}

func (s *SlashManagerTestSuite) TestOneActiveRequestPerPair() {
	id, err := s.request(s.payload(1000))
	s.Require().NoError(err)

	s.advance(time.Second)
	_, err = s.request(s.payload(500))
	s.ErrorIs(err, types.ErrAlreadyExists)

	// bips above the maximum fail regardless of the active request
	_, err = s.request(s.payload(9000))
	s.ErrorIs(err, types.ErrInvalidInput)

	_, err = s.execute(s.service, ExecuteMsg{SlashingCancel: &SlashingRequestRef{SlashingRequestID: id}})
	s.Require().NoError(err)
	s.Equal(Cancelled, s.status(id))

	next, err := s.request(s.payload(500))
	s.Require().NoError(err)
	s.NotEqual(id, next)
}

func (s *SlashManagerTestSuite) TestExpiredRequestAllowsNewRequest() {
	id, err := s.request(s.payload(1000))
	s.Require().NoError(err)

	s.advance(time.Duration(2*resolutionWindow) * time.Second)
	_, err = s.execute(s.service, ExecuteMsg{SlashingLock: &SlashingRequestRef{SlashingRequestID: id}})
	s.ErrorIs(err, types.ErrExpired)

	got, err := s.sm.Query(s.env(), QueryMsg{SlashingRequestID: &SlashingRequestID{Service: s.service, Operator: s.operator}})
	s.Require().NoError(err)
	s.Equal(SlashingRequestIDResponse(""), got)

	_, err = s.request(s.payload(1000))
	s.NoError(err)
}

func (s *SlashManagerTestSuite) TestLockAndFinalize() {
	id, err := s.request(s.payload(1000))
	s.Require().NoError(err)
	ref := &SlashingRequestRef{SlashingRequestID: id}

	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.ErrorIs(err, types.ErrInvalidInput)

	_, err = s.execute(s.operator, ExecuteMsg{SlashingLock: ref})
	s.ErrorIs(err, types.ErrUnauthorized)

	res, err := s.execute(s.service, ExecuteMsg{SlashingLock: ref})
	s.Require().NoError(err)
	s.Equal("SlashingLocked", res.Events[0].Type)
	s.Equal([]lockCall{{id: id, operator: s.operator, bips: 1000}}, s.router.locks)
	s.Equal(Locked, s.status(id))

	_, err = s.execute(s.service, ExecuteMsg{SlashingLock: ref})
	s.ErrorIs(err, types.ErrInvalidInput)
	_, err = s.execute(s.service, ExecuteMsg{SlashingCancel: ref})
	s.ErrorIs(err, types.ErrInvalidInput)

	s.advance(time.Duration(resolutionWindow) * time.Second)
	_, err = s.request(s.payload(100))
	s.ErrorIs(err, types.ErrAlreadyExists)

	locked, err := s.sm.Query(s.env(), QueryMsg{SlashingLocked: ref})
	s.Require().NoError(err)
	s.Len(locked, 1)

	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.Require().NoError(err)
	s.Equal(Finalized, s.status(id))
	s.Equal(&s.destination, s.router.finalized[id])

	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.ErrorIs(err, types.ErrInvalidInput)

	_, err = s.request(s.payload(100))
	s.NoError(err)
}

func (s *SlashManagerTestSuite) TestLockedRequestExpires() {
	id, err := s.request(s.payload(1000))
	s.Require().NoError(err)
	ref := &SlashingRequestRef{SlashingRequestID: id}
	_, err = s.execute(s.service, ExecuteMsg{SlashingLock: ref})
	s.Require().NoError(err)

	stranger := types.GenerateAddress("stranger")
	_, err = s.execute(stranger, ExecuteMsg{SlashingCancel: ref})
	s.ErrorIs(err, types.ErrUnauthorized)

	s.advance(time.Duration(2*resolutionWindow) * time.Second)
	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.ErrorIs(err, types.ErrExpired)

	got, err := s.sm.Query(s.env(), QueryMsg{SlashingRequestID: &SlashingRequestID{Service: s.service, Operator: s.operator}})
	s.Require().NoError(err)
	s.Equal(SlashingRequestIDResponse(""), got)

	// anyone can hand the custody of an expired request back
	res, err := s.execute(stranger, ExecuteMsg{SlashingCancel: ref})
	s.Require().NoError(err)
	s.Equal("SlashingCancelled", res.Events[0].Type)
	s.Equal([]string{id}, s.router.unlocked)
	s.Equal(Cancelled, s.status(id))

	_, err = s.execute(stranger, ExecuteMsg{SlashingCancel: ref})
	s.ErrorIs(err, types.ErrInvalidInput)

	next, err := s.request(s.payload(1000))
	s.Require().NoError(err)
	s.NotEqual(id, next)
}

func (s *SlashManagerTestSuite) TestRequestAgainInSameBlock() {
	p := s.payload(1000)
	id, err := s.request(p)
	s.Require().NoError(err)
	ref := &SlashingRequestRef{SlashingRequestID: id}
	_, err = s.execute(s.service, ExecuteMsg{SlashingCancel: ref})
	s.Require().NoError(err)

	again, err := s.request(p)
	s.Require().NoError(err)
	s.NotEqual(id, again)
	s.Equal(Cancelled, s.status(id))
	s.Equal(Requested, s.status(again))

	req, _, err := s.sm.SlashingRequest(again)
	s.Require().NoError(err)
	s.Equal(uint64(1), req.Sequence)

	// same block, after a finalize
	ref = &SlashingRequestRef{SlashingRequestID: again}
	_, err = s.execute(s.service, ExecuteMsg{SlashingLock: ref})
	s.Require().NoError(err)
	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.Require().NoError(err)

	third, err := s.request(p)
	s.Require().NoError(err)
	s.NotContains([]string{id, again}, third)
}

func (s *SlashManagerTestSuite) TestGuardrail() {
	_, err := s.execute(s.service, ExecuteMsg{SetGuardrail: &SetGuardrail{Guardrail: &s.guardAddr}})
	s.ErrorIs(err, types.ErrUnauthorized)

	unknown := types.ContractAddress("unknown")
	_, err = s.execute(s.owner, ExecuteMsg{SetGuardrail: &SetGuardrail{Guardrail: &unknown}})
	s.ErrorIs(err, types.ErrNotFound)

	_, err = s.execute(s.owner, ExecuteMsg{SetGuardrail: &SetGuardrail{Guardrail: &s.guardAddr}})
	s.Require().NoError(err)

	id, err := s.request(s.payload(1000))
	s.Require().NoError(err)
	ref := &SlashingRequestRef{SlashingRequestID: id}
	_, err = s.execute(s.service, ExecuteMsg{SlashingLock: ref})
	s.Require().NoError(err)

	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.ErrorIs(err, types.ErrUnauthorized)

	s.guardrail.passed[id] = true
	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.Require().NoError(err)
}

func (s *SlashManagerTestSuite) TestGuardrailCancel() {
	id, err := s.request(s.payload(1000))
	s.Require().NoError(err)
	ref := &SlashingRequestRef{SlashingRequestID: id}

	_, err = s.execute(s.guardAddr, ExecuteMsg{SlashingCancel: ref})
	s.ErrorIs(err, types.ErrUnauthorized)

	_, err = s.execute(s.owner, ExecuteMsg{SetGuardrail: &SetGuardrail{Guardrail: &s.guardAddr}})
	s.Require().NoError(err)

	_, err = s.execute(s.guardAddr, ExecuteMsg{SlashingCancel: ref})
	s.Require().NoError(err)
	s.Equal(Cancelled, s.status(id))
	s.Empty(s.router.unlocked)

	// a locked request is released back to the vaults
	locked, err := s.request(s.payload(1000))
	s.Require().NoError(err)
	ref = &SlashingRequestRef{SlashingRequestID: locked}
	_, err = s.execute(s.service, ExecuteMsg{SlashingLock: ref})
	s.Require().NoError(err)
	res, err := s.execute(s.guardAddr, ExecuteMsg{SlashingCancel: ref})
	s.Require().NoError(err)
	s.Equal(Cancelled, s.status(locked))
	s.Equal([]string{locked}, s.router.unlocked)
	s.Contains(res.Events[0].Attributes, types.Attribute{Key: "amount", Value: "1000"})

	_, err = s.execute(s.service, ExecuteMsg{SlashingFinalize: ref})
	s.ErrorIs(err, types.ErrInvalidInput)

	got, err := s.sm.Query(s.env(), QueryMsg{Guardrail: &GuardrailQuery{}})
	s.Require().NoError(err)
	s.Equal(GuardrailResponse(s.guardAddr), got)
}

func (s *SlashManagerTestSuite) TestUnknownRequest() {
	ref := &SlashingRequestRef{SlashingRequestID: "missing"}
	for _, msg := range []ExecuteMsg{{SlashingLock: ref}, {SlashingFinalize: ref}, {SlashingCancel: ref}} {
		_, err := s.execute(s.service, msg)
		s.ErrorIs(err, types.ErrNotFound)
	}

	got, err := s.sm.Query(s.env(), QueryMsg{SlashingRequest: ref})
	s.Require().NoError(err)
	s.Nil(got)
}

func TestRequestIDIsDeterministic(t *testing.T) {
	req := SlashingRequest{
		Request: RequestSlashingPayload{Operator: "op", Bips: 10, Timestamp: 5},
		Service: "svc",
	}
	a, err := RequestID(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RequestID(req)
	req.Sequence = 1
	c, _ := RequestID(req)
	req.Sequence = 0
	req.Service = "other"
	d, _ := RequestID(req)
	if a != b || a == c || a == d {
		t.Fatalf("ids %s %s %s %s", a, b, c, d)
	}
}
