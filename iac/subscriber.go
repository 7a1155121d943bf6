package iac

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/satlayer/satlayer-restaking/logger"
)

type Subscriber interface {
	subscribe(ctx context.Context, callback func(msg EventMsg))
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type kafkaSubscriber struct {
	reader messageReader
	logger logger.Logger
}

func NewSubscriber(brokers []string, topic string, groupID string, logger logger.Logger) Subscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		CommitInterval: 1 * time.Second,
		GroupID:        groupID,
		StartOffset:    kafka.FirstOffset,
	})
	return &kafkaSubscriber{reader: reader, logger: logger}
}

const retryInterval = time.Second

// subscribe blocks until ctx is done, then closes the reader.
func (k *kafkaSubscriber) subscribe(ctx context.Context, callback func(msg EventMsg)) {
	defer k.reader.Close()
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			k.logger.Error("read message failed", logger.WithField("err", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryInterval):
			}
			continue
		}
		event, err := decode(msg.Value)
		if err != nil {
			k.logger.Warn("skipping undecodable message",
				logger.WithField("offset", msg.Offset), logger.WithField("err", err))
			continue
		}
		callback(event)
	}
}
