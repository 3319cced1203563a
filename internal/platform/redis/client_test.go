package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioreg/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "://nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestOptions(t *testing.T) {
	t.Run("config overrides url defaults", func(t *testing.T) {
		opts, err := options(config.RedisConfig{
			URL:          "redis://localhost:6379/2",
			MinIdleConns: 2,
			DialTimeout:  time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 2, opts.MinIdleConns)
		assert.Equal(t, time.Second, opts.DialTimeout)
	})

	t.Run("zero values keep url settings", func(t *testing.T) {
		opts, err := options(config.RedisConfig{URL: "redis://localhost:6379/0?pool_size=7"})
		require.NoError(t, err)
		assert.Equal(t, 7, opts.PoolSize)
	})
}
