package iac

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	publish(ctx context.Context, messages ...EventMsg) error
	close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
}

// NewPublisher partitions by contract address so each contract's events keep
// their order. With topic auto creation the first write to a missing topic
// fails, the writer retries it.
func NewPublisher(brokers []string, topic string) Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           1 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return &kafkaPublisher{writer: writer}
}

func (k *kafkaPublisher) publish(ctx context.Context, messages ...EventMsg) error {
	msgs := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		value, err := encode(msg)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(msg.Contract),
			Value: value,
			Time:  msg.Time,
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return errorsmod.Wrap(err, "publish events")
	}
	return nil
}

func (k *kafkaPublisher) close() error {
	return k.writer.Close()
}
