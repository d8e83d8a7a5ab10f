package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestClientRateLimiterSharesBucketPerClient(t *testing.T) {
	limiter := newClientRateLimiter(rate.Limit(0.001), 1, time.Minute)

	first := limiter.limiterFor("10.0.0.1")
	require.Same(t, first, limiter.limiterFor("10.0.0.1"))
	assert.NotSame(t, first, limiter.limiterFor("10.0.0.2"))
	assert.Equal(t, 2, limiter.limiters.ItemCount())
}

func TestClientRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := newClientRateLimiter(rate.Limit(0.001), 1, 20*time.Millisecond)

	exhausted := limiter.limiterFor("10.0.0.1")
	require.True(t, exhausted.Allow())
	require.False(t, limiter.limiterFor("10.0.0.1").Allow())

	time.Sleep(60 * time.Millisecond)
	limiter.limiters.DeleteExpired()
	assert.Zero(t, limiter.limiters.ItemCount())

	fresh := limiter.limiterFor("10.0.0.1")
	assert.NotSame(t, exhausted, fresh)
	assert.True(t, fresh.Allow())
}
