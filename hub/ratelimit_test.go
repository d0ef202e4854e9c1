package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Rejects_Above_Limit(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(30, time.Minute)

	// Given 30 sends inside one window
	for i := 0; i < 30; i++ {
		req.True(limiter.Allow("user-1"), "send %d should pass", i+1)
	}

	// Then the 31st is rejected
	req.False(limiter.Allow("user-1"))

	// And other users are unaffected
	req.True(limiter.Allow("user-2"))
}

func TestRateLimiter_Resets_After_Window(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(30, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 30; i++ {
		req.True(limiter.Allow("user-1"))
	}
	req.False(limiter.Allow("user-1"))

	// When the wall clock passes the window boundary
	now = now.Add(time.Minute + time.Second)

	// Then sending is allowed again
	req.True(limiter.Allow("user-1"))
}

func TestRateLimiter_Rejection_Does_Not_Increment(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(2, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	req.True(limiter.Allow("user-1"))
	req.True(limiter.Allow("user-1"))

	// Hammering while rejected must not extend the lockout
	for i := 0; i < 10; i++ {
		req.False(limiter.Allow("user-1"))
	}

	now = now.Add(time.Minute + time.Millisecond)
	req.True(limiter.Allow("user-1"))
}

func TestRateLimiter_Purge_Drops_Expired_Entries(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(30, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	req.True(limiter.Allow("user-1"))
	req.True(limiter.Allow("user-2"))
	req.Equal(0, limiter.Purge())

	now = now.Add(2 * time.Minute)
	req.Equal(2, limiter.Purge())
	req.Empty(limiter.states)
}
