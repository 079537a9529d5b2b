package database

import (
	"context"
	"testing"
	"time"

	"loan-intake/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestRedisClient_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	require.NoError(t, client.Set(ctx, "session:abc", "payload", time.Minute))
	got, err := client.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, "payload", got)

	mr.FastForward(2 * time.Minute)
	_, err = client.Get(ctx, "session:abc")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisClient_Del(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0))
	require.NoError(t, client.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
	assert.NoError(t, client.Close())
}

func TestRedisClient_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	mr.Close()

	assert.Error(t, client.Ping(context.Background()))
}
