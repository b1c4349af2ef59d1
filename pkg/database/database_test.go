package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/mentor-tracker/internal/config"
)

func TestNewRedisClients(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	clients, err := NewRedisClients(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)

	assert.Nil(t, clients.DB)
	assert.Nil(t, clients.Mongo)
	require.NotNil(t, clients.Redis)
	assert.NoError(t, clients.Redis.Set(ctx, "k", "v", 0).Err())

	_, err = clients.Accessor(ctx)
	assert.Error(t, err, "a Redis-only process has no profile store")

	assert.NoError(t, clients.Close(ctx))
}

func TestNewRedisClientsUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClients(context.Background(), config.RedisConfig{Addr: addr})
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestNewClientsUnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	_, err := NewClients(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown store driver "sqlite"`)
}
