package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "app", cfg.Mongo.Database)
	assert.Equal(t, "users", cfg.Mongo.Collection)
	assert.Equal(t, 72*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 500*time.Millisecond, cfg.Kafka.RetryBackoff)
	assert.Equal(t, time.Minute, cfg.Server.RateWindow)
	assert.Equal(t, time.Minute, cfg.Server.RequestTimeout)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("SERVER_MAX_REQUESTS", "7")
	t.Setenv("SERVER_RATE_WINDOW", "5")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "30")
	t.Setenv("KAFKA_RETRY_MAX", "not-a-number")
	t.Setenv("STORAGE_MAX_SIZE", "1024")

	cfg := LoadConfig()

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 7, cfg.Server.MaxRequests)
	assert.Equal(t, 5*time.Second, cfg.Server.RateWindow)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 5, cfg.Kafka.RetryMax, "invalid ints fall back to the default")
	assert.Equal(t, int64(1024), cfg.Storage.MaxSize)
}
