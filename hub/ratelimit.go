package hub

import (
	"sync"
	"time"
)

// rateState tracks one user's window. In-memory only; losing it on
// restart is acceptable because the limiter is abuse mitigation, not a
// security boundary.
type rateState struct {
	count         int
	windowResetAt time.Time
}

// RateLimiter enforces a fixed per-user window on send attempts. Window
// boundaries are wall-clock: a burst straddling the boundary may pass
// twice, which is an accepted tradeoff.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	states map[string]*rateState
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		states: make(map[string]*rateState),
	}
}

// Allow reports whether userID may send now. Once the limit is reached
// further attempts are rejected without incrementing the counter.
func (l *RateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.states[userID]
	if !ok {
		state = &rateState{windowResetAt: now.Add(l.window)}
		l.states[userID] = state
	}
	if now.After(state.windowResetAt) {
		state.count = 0
		state.windowResetAt = now.Add(l.window)
	}
	if state.count >= l.limit {
		return false
	}
	state.count++
	return true
}

// Purge drops entries whose window has elapsed and returns how many were
// removed. Called periodically so the table does not grow with every
// user ever seen.
func (l *RateLimiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	purged := 0
	for userID, state := range l.states {
		if now.After(state.windowResetAt) {
			delete(l.states, userID)
			purged++
		}
	}
	return purged
}
