package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"trailmate/backend/internal/observability"
)

// KafkaPublisher writes activity events to a single topic, keyed by activity
// id so every change to one activity lands on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			BatchTimeout: 10 * time.Millisecond,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Printf("kafka publish error (%d messages): %v", len(messages), err)
					observability.RecordPublishFailure("kafka")
				}
			},
		},
	}
}

// Notify enqueues ev. Delivery errors are reported by the writer's completion callback.
func (p *KafkaPublisher) Notify(ctx context.Context, ev Event) {
	msg, err := Message(ev)
	if err != nil {
		log.Printf("kafka encode error: %v", err)
		observability.RecordPublishFailure("kafka")
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("kafka publish error: %v", err)
		observability.RecordPublishFailure("kafka")
	}
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message encodes ev as a kafka record.
func Message(ev Event) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.ActivityID),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}
