package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCheckRateLimitBypassEnvironments(t *testing.T) {
	for _, env := range []string{"test", "development"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			allowed, retryAfter, err := CheckRateLimit(context.Background(), nil, "login", "ip:1.2.3.4", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, allowed)
			assert.Zero(t, retryAfter)
		})
	}
}

func TestCheckRateLimitNilClient(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	allowed, _, err := CheckRateLimit(context.Background(), nil, "login", "ip:1.2.3.4", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestCheckRateLimitEnforcesWindow(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := CheckRateLimit(ctx, rdb, "comments", "user:7", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, retryAfter, err := CheckRateLimit(ctx, rdb, "comments", "user:7", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)
}

func TestCheckRateLimitSeparateKeys(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb := newTestRedis(t)
	ctx := context.Background()

	allowed, _, err := CheckRateLimit(ctx, rdb, "comments", "user:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Exhausting one user's budget leaves another untouched.
	allowed, _, err = CheckRateLimit(ctx, rdb, "comments", "user:1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, err = CheckRateLimit(ctx, rdb, "comments", "user:2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFormatRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{3*time.Minute + 20*time.Second, "3min 20s"},
		{time.Hour + 5*time.Minute, "1h 5min"},
		{2 * time.Hour, "2h 0min"},
		{500 * time.Millisecond, "1s"},
		{0, "1s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRetryAfter(tt.d))
	}
}
