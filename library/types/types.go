package types

import (
	"encoding/json"
	"time"
)

// Env is the environment observed by a single invocation. All time-locks are
// pure comparisons against Block.Time or Block.Height.
type Env struct {
	Block    BlockInfo    `json:"block"`
	Contract ContractInfo `json:"contract"`
}

type BlockInfo struct {
	Height int64     `json:"height"`
	Time   time.Time `json:"time"`
}

type ContractInfo struct {
	Address string `json:"address"`
}

// WithContract returns a copy of env addressed to another contract, used when
// one component calls into another within the same transaction.
func (e Env) WithContract(address string) Env {
	e.Contract = ContractInfo{Address: address}
	return e
}

type MessageInfo struct {
	Sender string `json:"sender"`
}

// Attribute is a string-keyed value for off-chain indexing.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

func NewEvent(eventType string) Event {
	return Event{Type: eventType}
}

func (e Event) AddAttribute(key, value string) Event {
	e.Attributes = append(e.Attributes, Attribute{Key: key, Value: value})
	return e
}

// SubMsg is a follow-up command to another component, executed in the same
// transaction with the emitting contract as sender.
type SubMsg struct {
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

// NewSubMsg marshals msg as the follow-up command payload.
func NewSubMsg(contract string, msg any) (SubMsg, error) {
	bz, err := json.Marshal(msg)
	if err != nil {
		return SubMsg{}, err
	}
	return SubMsg{Contract: contract, Msg: bz}, nil
}

// Response is returned by every successful command.
type Response struct {
	Attributes []Attribute `json:"attributes"`
	Events     []Event     `json:"events"`
	Messages   []SubMsg    `json:"messages"`
	Data       []byte      `json:"data,omitempty"`
}

func NewResponse() *Response {
	return &Response{}
}

func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r *Response) AddEvent(event Event) *Response {
	r.Events = append(r.Events, event)
	return r
}

func (r *Response) AddMessage(msg SubMsg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

func (r *Response) SetData(data []byte) *Response {
	r.Data = data
	return r
}

// Attribute returns the first attribute value for key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, attr := range r.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// ExactlyOne reports whether exactly one of the variant pointers is set.
// ExecuteMsg and QueryMsg wire structs use it to reject empty or ambiguous
// messages before dispatch.
func ExactlyOne(variants ...bool) bool {
	n := 0
	for _, set := range variants {
		if set {
			n++
		}
	}
	return n == 1
}
