// Package events publishes domain events after successful writes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/mentor-tracker/internal/metrics"
	"github.com/illegalcall/mentor-tracker/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// KafkaPublisher sends events to a single topic, keyed by Event.Key.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Key()),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	metrics.EventsPublished.WithLabelValues(event.Type, "ok").Inc()
	slog.Debug("Event published", "type", event.Type, "partition", partition, "offset", offset)
	return nil
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.Event) error { return nil }
