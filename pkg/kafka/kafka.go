// Package kafka builds the sarama clients shared by the API, which publishes
// domain events, and the leaderboard worker, which consumes them.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/mentor-tracker/internal/config"
)

const clientID = "mentor-tracker"

var (
	readyAttempts = 10
	readyDelay    = 3 * time.Second

	// dialBrokers opens and closes a client to prove the brokers answer.
	dialBrokers = func(brokers []string, cfg *sarama.Config) error {
		client, err := sarama.NewClient(brokers, cfg)
		if err != nil {
			return err
		}
		return client.Close()
	}
)

// waitForBrokers retries until a broker answers, the attempts run out or ctx
// ends. Kafka may come up after the services that depend on it.
func waitForBrokers(ctx context.Context, brokers []string) error {
	dialCfg := sarama.NewConfig()
	dialCfg.ClientID = clientID
	dialCfg.Net.DialTimeout = time.Second

	var lastErr error
	for attempt := 1; attempt <= readyAttempts; attempt++ {
		if lastErr = dialBrokers(brokers, dialCfg); lastErr == nil {
			return nil
		}
		slog.Info("Waiting for Kafka to be ready...", "attempt", attempt, "brokers", brokers)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyDelay):
		}
	}
	return fmt.Errorf("kafka not available after %d attempts: %w", readyAttempts, lastErr)
}

// producerConfig keys every message by mentor name or email and hashes the
// key to a partition. The worker appends to a per-group activity feed, so two
// awards for one group must reach it in the order they were made.
func producerConfig(cfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = clientID
	c.Producer.Return.Successes = true
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Partitioner = sarama.NewHashPartitioner
	c.Producer.Retry.Max = cfg.RetryMax
	c.Producer.Retry.Backoff = cfg.RetryBackoff
	// One in-flight request per broker keeps retries from reordering a key.
	c.Net.MaxOpenRequests = 1
	return c
}

// consumerConfig starts a new group from the oldest offset; the worker's
// per-offset idempotency makes replaying history safe.
func consumerConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = clientID
	c.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	c.Consumer.Offsets.Initial = sarama.OffsetOldest
	c.Consumer.Return.Errors = true
	return c
}

func NewProducer(ctx context.Context, cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	brokers := []string{cfg.Broker}
	if err := waitForBrokers(ctx, brokers); err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(brokers, producerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}

func NewConsumer(ctx context.Context, cfg config.KafkaConfig) (sarama.ConsumerGroup, error) {
	brokers := []string{cfg.Broker}
	if err := waitForBrokers(ctx, brokers); err != nil {
		return nil, err
	}

	group, err := sarama.NewConsumerGroup(brokers, cfg.Group, consumerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to join consumer group %s: %w", cfg.Group, err)
	}
	return group, nil
}
