package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	errorsmod "cosmossdk.io/errors"
	"github.com/go-resty/resty/v2"

	"github.com/satlayer/satlayer-restaking/library/types"
)

// RemoteError is a non-success envelope returned by the server.
type RemoteError struct {
	Status int
	Resp   Resp
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (code %d, http %d): %s", e.Resp.Kind, e.Resp.Code, e.Status, e.Resp.Msg)
}

// Client talks to a Server over HTTP.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{http: resty.New().SetBaseURL(baseURL).SetHeader("Content-Type", "application/json")}
}

// rawResp keeps data undecoded so callers pick the type.
type rawResp struct {
	Code uint32          `json:"code"`
	Kind string          `json:"kind,omitempty"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var out rawResp
	req := c.http.R().SetContext(ctx).SetResult(&out).SetError(&out)
	if body != nil {
		req.SetBody(body)
	}
	res, err := req.Execute(method, path)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "%s %s: %v", method, path, err)
	}
	if res.IsError() || out.Code != 0 {
		return nil, &RemoteError{
			Status: res.StatusCode(),
			Resp:   Resp{Code: out.Code, Kind: out.Kind, Msg: out.Msg},
		}
	}
	return out.Data, nil
}

func (c *Client) Healthz(ctx context.Context) (types.BlockInfo, error) {
	var block types.BlockInfo
	data, err := c.do(ctx, "GET", "/healthz", nil)
	if err != nil {
		return block, err
	}
	return block, json.Unmarshal(data, &block)
}

func (c *Client) Contracts(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, "GET", "/contracts", nil)
}

func (c *Client) Execute(ctx context.Context, contract string, payload ExecutePayload) (json.RawMessage, error) {
	return c.do(ctx, "POST", "/contracts/"+url.PathEscape(contract)+"/execute", payload)
}

func (c *Client) Query(ctx context.Context, contract string, payload QueryPayload) (json.RawMessage, error) {
	return c.do(ctx, "POST", "/contracts/"+url.PathEscape(contract)+"/query", payload)
}
