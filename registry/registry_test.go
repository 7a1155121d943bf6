package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/satlayer/satlayer-restaking/library/ownership"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/pauser"
)

type RegistryTestSuite struct {
	suite.Suite
	registry *Registry
	pauser   *pauser.Pauser
	owner    string
	service  string
	operator string
	now      time.Time
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.owner = types.GenerateAddress("owner")
	s.service = types.GenerateAddress("service")
	s.operator = types.GenerateAddress("operator")
	s.now = time.Unix(1_700_000_000, 0)

	kv := store.NewMemStore()
	s.pauser = pauser.New(store.Prefix(kv, "pauser"), types.ContractAddress("pauser"))
	s.Require().NoError(s.pauser.Instantiate(pauser.InstantiateMsg{Owner: s.owner}))
	s.registry = New(store.Prefix(kv, "registry"), types.ContractAddress("registry"), s.pauser)
	s.Require().NoError(s.registry.Instantiate(InstantiateMsg{Owner: s.owner, Pauser: s.pauser.Address()}))
}

func (s *RegistryTestSuite) env() types.Env {
	return types.Env{
		Block:    types.BlockInfo{Height: 1, Time: s.now},
		Contract: types.ContractInfo{Address: s.registry.Address()},
	}
}

func (s *RegistryTestSuite) execute(sender string, msg ExecuteMsg) (*types.Response, error) {
	return s.registry.Execute(s.env(), types.MessageInfo{Sender: sender}, msg)
}

func (s *RegistryTestSuite) registerBoth() {
	_, err := s.execute(s.service, ExecuteMsg{RegisterAsService: &RegisterAsService{}})
	s.Require().NoError(err)
	_, err = s.execute(s.operator, ExecuteMsg{RegisterAsOperator: &RegisterAsOperator{}})
	s.Require().NoError(err)
}

func (s *RegistryTestSuite) activate() {
	s.registerBoth()
	_, err := s.execute(s.service, ExecuteMsg{RegisterOperatorToService: &RegisterOperatorToService{Operator: s.operator}})
	s.Require().NoError(err)
	_, err = s.execute(s.operator, ExecuteMsg{RegisterServiceToOperator: &RegisterServiceToOperator{Service: s.service}})
	s.Require().NoError(err)
}

func (s *RegistryTestSuite) TestRegisterTwiceFails() {
	s.registerBoth()
	_, err := s.execute(s.operator, ExecuteMsg{RegisterAsOperator: &RegisterAsOperator{}})
	s.ErrorIs(err, types.ErrAlreadyExists)
}

func (s *RegistryTestSuite) TestMetadataIsEmitted() {
	name := "operator one"
	res, err := s.execute(s.operator, ExecuteMsg{RegisterAsOperator: &RegisterAsOperator{Metadata: Metadata{Name: &name}}})
	s.Require().NoError(err)
	s.Equal("OperatorRegistered", res.Events[0].Type)
	s.Contains(res.Events[0].Attributes, types.Attribute{Key: "metadata.name", Value: name})
}

func (s *RegistryTestSuite) TestActivation() {
	s.registerBoth()
	_, err := s.execute(s.service, ExecuteMsg{RegisterOperatorToService: &RegisterOperatorToService{Operator: s.operator}})
	s.Require().NoError(err)

	active, err := s.registry.IsOperatorActive(s.operator)
	s.Require().NoError(err)
	s.False(active)

	status, err := s.registry.Status(s.service, s.operator, s.now)
	s.Require().NoError(err)
	s.Equal(ServiceRegistered, status)

	_, err = s.execute(s.service, ExecuteMsg{RegisterOperatorToService: &RegisterOperatorToService{Operator: s.operator}})
	s.ErrorIs(err, types.ErrAlreadyExists)

	s.now = s.now.Add(time.Minute)
	_, err = s.execute(s.operator, ExecuteMsg{RegisterServiceToOperator: &RegisterServiceToOperator{Service: s.service}})
	s.Require().NoError(err)

	active, err = s.registry.IsOperatorActive(s.operator)
	s.Require().NoError(err)
	s.True(active)

	ok, err := s.registry.IsServiceActiveRegistration(s.service, s.operator, s.now)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.registry.IsServiceActiveRegistration(s.service, s.operator, s.now.Add(-time.Second))
	s.Require().NoError(err)
	s.False(ok, "registration was not active before activation")
}

func (s *RegistryTestSuite) TestDeregisterKeepsHistory() {
	s.activate()
	activatedAt := s.now

	s.now = s.now.Add(time.Hour)
	_, err := s.execute(s.operator, ExecuteMsg{DeregisterServiceFromOperator: &DeregisterServiceFromOperator{Service: s.service}})
	s.Require().NoError(err)

	active, err := s.registry.IsOperatorActive(s.operator)
	s.Require().NoError(err)
	s.False(active)

	ok, err := s.registry.IsServiceActiveRegistration(s.service, s.operator, activatedAt.Add(time.Minute))
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.execute(s.operator, ExecuteMsg{DeregisterServiceFromOperator: &DeregisterServiceFromOperator{Service: s.service}})
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *RegistryTestSuite) TestSlashingParameters() {
	s.activate()

	_, err := s.execute(s.service, ExecuteMsg{EnableSlashing: &EnableSlashing{SlashingParameters{MaxSlashingBips: 10_001, ResolutionWindow: 60}}})
	s.ErrorIs(err, types.ErrInvalidInput)

	_, err = s.execute(s.operator, ExecuteMsg{OperatorOptInToSlashing: &OperatorOptInToSlashing{Service: s.service}})
	s.ErrorIs(err, types.ErrNotFound)

	_, err = s.execute(s.service, ExecuteMsg{EnableSlashing: &EnableSlashing{SlashingParameters{MaxSlashingBips: 500, ResolutionWindow: 60}}})
	s.Require().NoError(err)

	_, err = s.execute(s.operator, ExecuteMsg{OperatorOptInToSlashing: &OperatorOptInToSlashing{Service: s.service}})
	s.Require().NoError(err)

	params, enabled, err := s.registry.SlashingParameters(s.service, s.now)
	s.Require().NoError(err)
	s.True(enabled)
	s.Equal(uint16(500), params.MaxSlashingBips)

	optedIn, err := s.registry.IsOperatorOptedInToSlashing(s.service, s.operator, s.now)
	s.Require().NoError(err)
	s.True(optedIn)

	s.now = s.now.Add(time.Hour)
	_, err = s.execute(s.service, ExecuteMsg{DisableSlashing: &DisableSlashing{}})
	s.Require().NoError(err)

	_, enabled, err = s.registry.SlashingParameters(s.service, s.now)
	s.Require().NoError(err)
	s.False(enabled)

	res, err := s.registry.Query(s.env(), QueryMsg{SlashingParameters: &SlashingParametersQuery{Service: s.service, Timestamp: ptr(s.now.Add(-time.Minute).Unix())}})
	s.Require().NoError(err)
	s.True(res.(SlashingParametersResponse).Enabled)
}

func (s *RegistryTestSuite) TestPaused() {
	_, err := s.pauser.Execute(types.Env{}, types.MessageInfo{Sender: s.owner}, pauser.ExecuteMsg{
		Pause: &pauser.Pause{Contract: s.registry.Address(), Method: "register_as_operator"},
	})
	s.Require().NoError(err)

	_, err = s.execute(s.operator, ExecuteMsg{RegisterAsOperator: &RegisterAsOperator{}})
	s.ErrorIs(err, types.ErrPaused)
}

func (s *RegistryTestSuite) TestQueries() {
	s.activate()

	res, err := s.registry.Query(s.env(), QueryMsg{IsOperator: &s.operator})
	s.Require().NoError(err)
	s.Equal(IsOperatorResponse(true), res)

	res, err = s.registry.Query(s.env(), QueryMsg{IsService: &s.operator})
	s.Require().NoError(err)
	s.Equal(IsServiceResponse(false), res)

	res, err = s.registry.Query(s.env(), QueryMsg{Status: &Status{Service: s.service, Operator: s.operator}})
	s.Require().NoError(err)
	s.Equal(StatusResponse(Active), res)

	_, err = s.registry.Query(s.env(), QueryMsg{})
	s.ErrorIs(err, types.ErrInvalidInput)
}

func (s *RegistryTestSuite) TestOwnership() {
	next := types.GenerateAddress("next")
	_, err := s.execute(s.owner, ExecuteMsg{TransferOwnership: &ownership.TransferOwnership{NewOwner: next}})
	s.Require().NoError(err)
	_, err = s.execute(next, ExecuteMsg{AcceptOwnership: &ownership.AcceptOwnership{}})
	s.Require().NoError(err)
}

func ptr[T any](v T) *T {
	return &v
}
