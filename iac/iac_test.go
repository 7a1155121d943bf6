package iac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type fakeReader struct {
	msgs   chan kafka.Message
	closed bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func event(contract string) EventMsg {
	return EventMsg{
		Height:   3,
		Time:     time.Unix(1_700_000_000, 0).UTC(),
		Contract: contract,
		Event:    types.NewEvent("SlashingRequested").AddAttribute("operator", "op"),
	}
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	f := NewIACFacade(&kafkaPublisher{writer: w}, nil)

	require.NoError(t, f.Publish(context.Background()))
	assert.Empty(t, w.msgs)

	require.NoError(t, f.Publish(context.Background(), event("slash-manager"), event("router")))
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "slash-manager", string(w.msgs[0].Key))
	assert.Equal(t, "router", string(w.msgs[1].Key))

	got, err := decode(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, event("slash-manager"), got)

	require.NoError(t, f.Close())
	assert.True(t, w.closed)
}

func TestPublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	f := NewIACFacade(&kafkaPublisher{writer: w}, nil)
	err := f.Publish(context.Background(), event("vault"))
	assert.ErrorContains(t, err, "broker down")
}

func TestSubscribe(t *testing.T) {
	r := &fakeReader{msgs: make(chan kafka.Message, 3)}
	bz, err := encode(event("guardrail"))
	require.NoError(t, err)
	r.msgs <- kafka.Message{Value: []byte("not json")}
	r.msgs <- kafka.Message{Value: bz}

	log := logger.NewMockLogger()
	f := NewIACFacade(&kafkaPublisher{writer: &fakeWriter{}}, &kafkaSubscriber{reader: r, logger: log})

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan EventMsg, 1)
	done := make(chan struct{})
	go func() {
		f.RegisterSubscriber(ctx, func(msg EventMsg) {
			received <- msg
		})
		close(done)
	}()

	select {
	case msg := <-received:
		assert.Equal(t, "guardrail", msg.Contract)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	cancel()
	<-done

	assert.True(t, r.closed)
	require.Len(t, log.Entries(), 1)
	assert.Equal(t, "warn", log.Entries()[0].Level)
}

func TestSubscribeOnly(t *testing.T) {
	f := NewIACFacade(nil, nil)
	f.RegisterSubscriber(context.Background(), func(EventMsg) { t.Fatal("unexpected message") })
	assert.NoError(t, f.Close())
}
