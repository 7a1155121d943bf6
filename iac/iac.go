package iac

import (
	"context"
	"encoding/json"
	"time"

	"github.com/satlayer/satlayer-restaking/library/types"
)

// EventMsg is a committed contract event as published to the broker.
type EventMsg struct {
	Height   int64       `json:"height"`
	Time     time.Time   `json:"time"`
	Contract string      `json:"contract"`
	Event    types.Event `json:"event"`
}

type IAC interface {
	RegisterSubscriber(ctx context.Context, callback func(msg EventMsg))
	Publish(ctx context.Context, msg ...EventMsg) error
	Close() error
}

type Facade struct {
	publisher  Publisher
	subscriber Subscriber
}

var _ IAC = (*Facade)(nil)

// NewIACFacade takes a nil subscriber for publish-only use.
func NewIACFacade(publisher Publisher, subscriber Subscriber) *Facade {
	return &Facade{
		publisher:  publisher,
		subscriber: subscriber,
	}
}

func (f *Facade) RegisterSubscriber(ctx context.Context, callback func(msg EventMsg)) {
	if f.subscriber == nil {
		return
	}
	f.subscriber.subscribe(ctx, callback)
}

func (f *Facade) Publish(ctx context.Context, msg ...EventMsg) error {
	if len(msg) == 0 {
		return nil
	}
	return f.publisher.publish(ctx, msg...)
}

func (f *Facade) Close() error {
	if f.publisher == nil {
		return nil
	}
	return f.publisher.close()
}

func encode(msg EventMsg) ([]byte, error) {
	return json.Marshal(msg)
}

func decode(bz []byte) (EventMsg, error) {
	var msg EventMsg
	err := json.Unmarshal(bz, &msg)
	return msg, err
}
