package http

import (
	"time"

	"github.com/benbjohnson/clock"
)

// rateLimiter caps inbound frames per connection in fixed one-minute windows.
// It is owned by a single read loop and needs no locking.
type rateLimiter struct {
	limit       int
	window      time.Duration
	clock       clock.Clock
	counter     int
	windowStart time.Time
}

func newRateLimiter(limit int, clk clock.Clock) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit:       limit,
		window:      time.Minute,
		clock:       clk,
		windowStart: clk.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if now := r.clock.Now(); now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
