// Package bus publishes answer batches as watermill messages, either to an
// in-process channel or to Kafka.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/kihon/kuiz/internal/outbox"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "kuiz.session.results"

// Sink implements outbox.Sink by publishing each batch as one message.
type Sink struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

var _ outbox.Sink = (*Sink)(nil)

// NewSink wraps an existing publisher.
func NewSink(publisher message.Publisher, topic string, logger *slog.Logger) *Sink {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{publisher: publisher, topic: topic, logger: logger}
}

// NewKafkaSink connects a Kafka publisher to brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	return NewSink(pub, topic, logger), nil
}

// NewChannel returns an in-process pub/sub. Subscribers receive batches
// published by a Sink built on it.
func NewChannel(logger *slog.Logger) *gochannel.GoChannel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
}

// NewLocalSink publishes to an in-process channel whose only subscriber logs
// each batch. It stands in for a broker when result sync is disabled.
func NewLocalSink(ctx context.Context, topic string, logger *slog.Logger) (*Sink, error) {
	ch := NewChannel(logger)
	s := NewSink(ch, topic, logger)
	msgs, err := ch.Subscribe(ctx, s.topic)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	go func() {
		for msg := range msgs {
			b, err := Decode(msg)
			if err != nil {
				s.logger.Warn("drop local message", "error", err)
			} else {
				s.logger.Debug("results kept local", "user_id", b.UserID, "results", len(b.Results))
			}
			msg.Ack()
		}
	}()
	return s, nil
}

// Topic returns the topic batches are published to.
func (s *Sink) Topic() string { return s.topic }

// Submit publishes b.
func (s *Sink) Submit(ctx context.Context, b outbox.Batch) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal results batch: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("user_id", b.UserID)
	msg.Metadata.Set("results", fmt.Sprint(len(b.Results)))
	msg.Metadata.Set("timestamp", time.Now().UTC().Format(time.RFC3339))

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		s.logger.Error("publish results batch failed", "topic", s.topic, "error", err)
		return fmt.Errorf("publish results batch: %w", err)
	}
	s.logger.Info("published results batch", "topic", s.topic, "message_id", msg.UUID, "results", len(b.Results))
	return nil
}

// Close closes the underlying publisher.
func (s *Sink) Close() error {
	return s.publisher.Close()
}

// Decode parses a message published by Sink.
func Decode(msg *message.Message) (outbox.Batch, error) {
	var b outbox.Batch
	if err := json.Unmarshal(msg.Payload, &b); err != nil {
		return outbox.Batch{}, fmt.Errorf("decode results batch %s: %w", msg.UUID, err)
	}
	return b, nil
}
