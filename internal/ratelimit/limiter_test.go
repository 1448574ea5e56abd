package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newIntegrationLimiter connects to the Redis named by TEST_REDIS_ADDR.
// Skipped when the variable is unset.
func newIntegrationLimiter(t *testing.T, limit int) *Limiter {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	require.NoError(t, client.FlushDB(context.Background()).Err())

	return NewLimiter(client, limit, time.Minute)
}

func TestLimiter_Integration(t *testing.T) {
	limiter := newIntegrationLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		exceeded, err := limiter.CheckIPRateLimit(ctx, "10.0.0.1", "login")
		require.NoError(t, err)
		assert.False(t, exceeded)
		require.NoError(t, limiter.RecordIPRequest(ctx, "10.0.0.1", "login"))
	}

	exceeded, err := limiter.CheckIPRateLimit(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.True(t, exceeded)

	// Purposes and IPs are independent windows
	exceeded, err = limiter.CheckIPRateLimit(ctx, "10.0.0.1", "register")
	require.NoError(t, err)
	assert.False(t, exceeded)

	exceeded, err = limiter.CheckIPRateLimit(ctx, "10.0.0.2", "login")
	require.NoError(t, err)
	assert.False(t, exceeded)
}
