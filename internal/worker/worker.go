package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/mentor-tracker/internal/config"
	"github.com/illegalcall/mentor-tracker/internal/metrics"
	"github.com/illegalcall/mentor-tracker/internal/models"
)

// Recorder is where group awards end up.
type Recorder interface {
	Record(ctx context.Context, eventID string, event models.Event) (bool, error)
}

// Worker consumes domain events and feeds group awards to the leaderboard.
type Worker struct {
	cfg      *config.Config
	board    Recorder
	consumer sarama.ConsumerGroup

	ready     chan struct{}
	readyOnce sync.Once
}

func NewWorker(cfg *config.Config, board Recorder, consumer sarama.ConsumerGroup) *Worker {
	slog.Info("Initializing new Worker")
	return &Worker{
		cfg:      cfg,
		board:    board,
		consumer: consumer,
		ready:    make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	slog.Info("Starting worker", "topics", topics, "group", w.cfg.Kafka.Group)

	go func() {
		for err := range w.consumer.Errors() {
			slog.Error("Kafka consumer error received", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				slog.Error("Error from consumer.Consume", "error", err)
			}
			if ctx.Err() != nil {
				slog.Info("Context cancelled, exiting consumer loop", "error", ctx.Err())
				return
			}
		}
	}()

	select {
	case <-w.ready:
		slog.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	<-ctx.Done()
	<-done
	slog.Info("Worker shutting down gracefully")
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session setup complete")
	w.readyOnce.Do(func() { close(w.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := w.processEvent(session.Context(), message); err != nil {
			slog.Error("Failed to process event", "offset", message.Offset, "partition", message.Partition, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) processEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		metrics.EventsProcessed.WithLabelValues("unknown", "malformed").Inc()
		slog.Error("JSON unmarshalling failed", "error", err, "raw", string(msg.Value))
		return fmt.Errorf("failed to parse event: %w", err)
	}

	if event.Type != models.EventGroupPointsAdded {
		metrics.EventsProcessed.WithLabelValues(event.Type, "skipped").Inc()
		slog.Debug("Ignoring event", "type", event.Type, "offset", msg.Offset)
		return nil
	}

	eventID := fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset)

	var err error
	for attempt := 1; attempt <= max(1, w.cfg.Kafka.RetryMax); attempt++ {
		var applied bool
		applied, err = w.board.Record(ctx, eventID, event)
		if err == nil {
			outcome := "ok"
			if !applied {
				outcome = "duplicate"
			}
			metrics.EventsProcessed.WithLabelValues(event.Type, outcome).Inc()
			slog.Info("Group award recorded", "mentor", event.MentorName, "points", event.PointsAdded,
				"updated", event.UpdatedCount, "event", eventID, "applied", applied)
			return nil
		}
		slog.Error("Recording award failed", "event", eventID, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		}
	}

	metrics.EventsProcessed.WithLabelValues(event.Type, "failed").Inc()
	return fmt.Errorf("giving up on event %s: %w", eventID, err)
}
