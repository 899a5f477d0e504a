// Package eventbus is an in-process publish/subscribe bus on top of watermill's go channel transport.
package eventbus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gaze-network/collectible-ledger/pkg/logger/slogx"
)

const (
	DefaultTopic  = "collectible.events"
	DefaultBuffer = 256
)

type Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	LogSubscriber bool   `mapstructure:"log_subscriber"`
	Topic         string `mapstructure:"topic"`
	Buffer        int64  `mapstructure:"buffer"`
}

// Handler processes a single message. A returned error is logged and the message is acknowledged anyway.
type Handler func(ctx context.Context, msg *message.Message) error

type Bus struct {
	pubsub *gochannel.GoChannel
	wg     sync.WaitGroup
}

func New(conf Config) *Bus {
	buffer := conf.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: buffer,
			// each message waits for its ack so subscribers see payloads in publish order
			BlockPublishUntilSubscriberAck: true,
		}, newLoggerAdapter()),
	}
}

// Publish encodes every payload as JSON and sends it to topic. It returns once every
// subscriber has handled the payloads, in order.
func (b *Bus) Publish(ctx context.Context, topic string, payloads ...any) error {
	msgs := make([]*message.Message, 0, len(payloads))
	for _, payload := range payloads {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "failed to encode message payload")
		}
		msg := message.NewMessage(watermill.NewUUID(), data)
		msg.SetContext(ctx)
		msgs = append(msgs, msg)
	}
	if err := b.pubsub.Publish(topic, msgs...); err != nil {
		return errors.Wrapf(err, "failed to publish to %s", topic)
	}
	return nil
}

// Subscribe consumes topic in the background until ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	ch, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return errors.Wrapf(err, "failed to subscribe to %s", topic)
	}

	ctx = logger.WithContext(ctx, slogx.String("topic", topic))
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range ch {
			if err := handler(ctx, msg); err != nil {
				logger.ErrorContext(ctx, "Message handler failed", err, slogx.String("message_id", msg.UUID))
			}
			msg.Ack()
		}
	}()
	return nil
}

// Close stops every subscription and waits for in-flight handlers.
func (b *Bus) Close() error {
	if err := b.pubsub.Close(); err != nil {
		return errors.Wrap(err, "failed to close pubsub")
	}
	b.wg.Wait()
	return nil
}

// LogHandler logs every received message at info level.
func LogHandler(ctx context.Context, msg *message.Message) error {
	logger.InfoContext(ctx, "Received message",
		slogx.String("message_id", msg.UUID),
		slogx.String("payload", string(msg.Payload)),
	)
	return nil
}
