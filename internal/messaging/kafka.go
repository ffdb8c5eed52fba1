// Package messaging publishes catalog events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Config is the kafka section of the application config.
type Config struct {
	Brokers      []string
	TopicPrefix  string
	MaxAttempts  int
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON encoded events keyed by the caller's key, so
// events of one product land on one partition. The production writer is
// asynchronous: Publish only enqueues, delivery failures are logged from the
// completion callback and Close flushes what is still buffered.
type KafkaPublisher struct {
	writer messageWriter
	prefix string
	log    zerolog.Logger
}

func NewKafkaPublisher(cfg Config, log zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		Async:                  true,
		Completion:             deliveryLogger(log),
	}
	log.Info().Strs("brokers", cfg.Brokers).Msg("kafka producer created")
	return newPublisher(w, cfg.TopicPrefix, log)
}

func deliveryLogger(log zerolog.Logger) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, m := range msgs {
			log.Error().Err(err).Str("topic", m.Topic).Str("key", string(m.Key)).Msg("event delivery failed")
		}
	}
}

func newPublisher(w messageWriter, prefix string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, prefix: prefix, log: log}
}

// Topic returns the full topic name for an event topic.
func (p *KafkaPublisher) Topic(topic string) string {
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "." + topic
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Topic: p.Topic(topic),
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Topic, err)
	}
	p.log.Debug().Str("topic", msg.Topic).Str("key", key).Msg("event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
