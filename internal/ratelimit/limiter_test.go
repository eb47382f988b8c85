package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewLimiter(client), mr
}

func TestIPRateLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	exceeded, err := limiter.CheckIPRateLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, exceeded)

	for i := 0; i < ipLimitMax; i++ {
		require.NoError(t, limiter.RecordIPRequest(ctx, "10.0.0.1"))
	}

	exceeded, err = limiter.CheckIPRateLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, exceeded)

	// other addresses are unaffected
	exceeded, err = limiter.CheckIPRateLimit(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestIPRateLimitPerPurpose(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < ipLimitMax; i++ {
		require.NoError(t, limiter.RecordIPRequestWithPurpose(ctx, "10.0.0.1", "login"))
	}

	exceeded, err := limiter.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.True(t, exceeded)

	// counters are independent per purpose
	exceeded, err = limiter.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "register")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestIPRateLimitWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < ipLimitMax; i++ {
		require.NoError(t, limiter.RecordIPRequest(ctx, "10.0.0.1"))
	}

	exceeded, err := limiter.CheckIPRateLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, exceeded)

	mr.FastForward(ipLimitWindow + time.Second)

	exceeded, err = limiter.CheckIPRateLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestEmailCooldown(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	onCooldown, err := limiter.CheckEmailCooldown(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, onCooldown)

	require.NoError(t, limiter.SetEmailCooldown(ctx, "alice@example.com"))

	onCooldown, err = limiter.CheckEmailCooldown(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, onCooldown)

	mr.FastForward(emailCooldown + time.Second)

	onCooldown, err = limiter.CheckEmailCooldown(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, onCooldown)
}
