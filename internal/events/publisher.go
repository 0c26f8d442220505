package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/ksred/klear-datagen/internal/types"
)

// Publisher sends derived events to a message bus
type Publisher interface {
	Publish(ctx context.Context, events []types.Event) error
}

// messageWriter is the subset of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each event to its own topic, keyed by correlation
// id so one entity's events stay on one partition in order.
type KafkaPublisher struct {
	writer      messageWriter
	topicPrefix string
}

// KafkaConfig configures NewKafkaPublisher
type KafkaConfig struct {
	Brokers      []string
	TopicPrefix  string
	BatchTimeout time.Duration
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, cfg.TopicPrefix)
}

func newKafkaPublisher(w messageWriter, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topicPrefix: topicPrefix}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []types.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.EventID, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: p.topicPrefix + e.Topic,
			Key:   []byte(e.CorrelationID),
			Value: value,
			Time:  e.Timestamp,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.EventType)},
				{Key: "source", Value: []byte(e.Source)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d events: %w", len(msgs), err)
	}
	log.Info().
		Str("component", "event_publisher").
		Int("events", len(msgs)).
		Msg("published events")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
