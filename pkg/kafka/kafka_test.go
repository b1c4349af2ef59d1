package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/mentor-tracker/internal/config"
)

func stubDial(t *testing.T, fn func([]string, *sarama.Config) error) {
	t.Helper()
	prevDial, prevDelay := dialBrokers, readyDelay
	dialBrokers, readyDelay = fn, time.Millisecond
	t.Cleanup(func() { dialBrokers, readyDelay = prevDial, prevDelay })
}

func TestProducerConfig(t *testing.T) {
	c := producerConfig(config.KafkaConfig{RetryMax: 4, RetryBackoff: 250 * time.Millisecond})

	require.NoError(t, c.Validate())
	assert.True(t, c.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, c.Producer.RequiredAcks)
	assert.Equal(t, 4, c.Producer.Retry.Max)
	assert.Equal(t, 250*time.Millisecond, c.Producer.Retry.Backoff)
	assert.Equal(t, 1, c.Net.MaxOpenRequests)

	// Equal keys land on the same partition.
	p := c.Producer.Partitioner("profile-events")
	msg := func() *sarama.ProducerMessage {
		return &sarama.ProducerMessage{Key: sarama.StringEncoder("Jane Doe")}
	}
	first, err := p.Partition(msg(), 12)
	require.NoError(t, err)
	second, err := p.Partition(msg(), 12)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConsumerConfig(t *testing.T) {
	c := consumerConfig()

	require.NoError(t, c.Validate())
	assert.Equal(t, sarama.OffsetOldest, c.Consumer.Offsets.Initial)
	assert.True(t, c.Consumer.Return.Errors)
}

func TestWaitForBrokers(t *testing.T) {
	t.Run("succeeds once a broker answers", func(t *testing.T) {
		calls := 0
		stubDial(t, func([]string, *sarama.Config) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})

		require.NoError(t, waitForBrokers(context.Background(), []string{"kafka:9092"}))
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		stubDial(t, func([]string, *sarama.Config) error { return errors.New("connection refused") })

		err := waitForBrokers(context.Background(), []string{"kafka:9092"})
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		calls := 0
		stubDial(t, func([]string, *sarama.Config) error {
			calls++
			return errors.New("connection refused")
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := waitForBrokers(ctx, []string{"kafka:9092"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
