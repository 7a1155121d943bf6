package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/satlayer/satlayer-restaking/app"
	"github.com/satlayer/satlayer-restaking/conf"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
)

type APITestSuite struct {
	suite.Suite
	app     *app.App
	handler http.Handler
	owner   string
	alice   string
	now     time.Time
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.owner = types.GenerateAddress("owner")
	s.alice = types.GenerateAddress("alice")
	s.now = time.Unix(1_700_000_000, 0).UTC()

	log := logger.NewMockLogger()
	s.app = app.New(store.NewMemStore(), app.Options{Logger: log, Clock: func() time.Time { return s.now }})
	s.Require().NoError(s.app.InitGenesis(context.Background(), types.BlockInfo{Height: 1, Time: s.now}, conf.Genesis{
		Owner:    s.owner,
		Balances: []conf.Balance{{Address: s.owner, Denom: "ubbn", Amount: "500"}},
	}))
	s.handler = NewServer("", s.app, log).Handler()
}

func (s *APITestSuite) do(method, path string, body any) (int, Resp) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var resp Resp
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func (s *APITestSuite) TestHealthz() {
	code, resp := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, code)
	s.Equal(uint32(0), resp.Code)
	s.Equal(float64(1), resp.Data.(map[string]any)["height"])
}

func (s *APITestSuite) TestContracts() {
	code, resp := s.do(http.MethodGet, "/contracts", nil)
	s.Equal(http.StatusOK, code)
	s.Len(resp.Data, 8)
}

func (s *APITestSuite) TestExecuteAndQuery() {
	code, resp := s.do(http.MethodPost, "/contracts/bank/execute", map[string]any{
		"sender": s.owner,
		"msg":    json.RawMessage(`{"transfer":{"recipient":"` + s.alice + `","denom":"ubbn","amount":"120"}}`),
	})
	s.Require().Equal(http.StatusOK, code, resp.Msg)
	events := resp.Data.(map[string]any)["events"].([]any)
	s.Len(events, 1)

	code, resp = s.do(http.MethodPost, "/contracts/"+app.Address(app.BankName)+"/query", map[string]any{
		"msg": json.RawMessage(`{"balance":{"address":"` + s.alice + `","denom":"ubbn"}}`),
	})
	s.Equal(http.StatusOK, code)
	s.Equal("120", resp.Data)
}

func (s *APITestSuite) TestErrors() {
	code, resp := s.do(http.MethodPost, "/contracts/bank/execute", map[string]any{
		"sender": s.alice,
		"msg":    json.RawMessage(`{"transfer":{"recipient":"` + s.owner + `","denom":"ubbn","amount":"1"}}`),
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Insufficient", resp.Kind)
	s.Equal(types.ABCICode(types.ErrInsufficient), resp.Code)

	code, resp = s.do(http.MethodPost, "/contracts/bank/execute", map[string]any{
		"sender": s.alice,
		"msg":    json.RawMessage(`{"mint":{"recipient":"` + s.alice + `","denom":"ubbn","amount":"1"}}`),
	})
	s.Equal(http.StatusForbidden, code)
	s.Equal("Unauthorized", resp.Kind)

	code, resp = s.do(http.MethodPost, "/contracts/nowhere/query", map[string]any{"msg": json.RawMessage(`{}`)})
	s.Equal(http.StatusNotFound, code)
	s.Equal("NotFound", resp.Kind)

	code, _ = s.do(http.MethodPost, "/contracts/bank/execute", map[string]any{"msg": json.RawMessage(`{}`)})
	s.Equal(http.StatusBadRequest, code)
}

func (s *APITestSuite) TestClient() {
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	client := NewClient(srv.URL)
	ctx := context.Background()

	block, err := client.Healthz(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), block.Height)

	_, err = client.Execute(ctx, app.BankName, ExecutePayload{
		Sender: s.owner,
		Msg:    json.RawMessage(`{"transfer":{"recipient":"` + s.alice + `","denom":"ubbn","amount":"7"}}`),
	})
	s.Require().NoError(err)

	data, err := client.Query(ctx, app.BankName, QueryPayload{
		Msg: json.RawMessage(`{"balance":{"address":"` + s.alice + `","denom":"ubbn"}}`),
	})
	s.Require().NoError(err)
	s.JSONEq(`"7"`, string(data))

	_, err = client.Query(ctx, "nowhere", QueryPayload{Msg: json.RawMessage(`{}`)})
	var remote *RemoteError
	s.Require().ErrorAs(err, &remote)
	s.Equal(http.StatusNotFound, remote.Status)
	s.Equal("NotFound", remote.Resp.Kind)
}
