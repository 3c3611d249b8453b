package http

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestRateLimiterWindow(t *testing.T) {
	mock := clock.NewMock()
	rl := newRateLimiter(2, mock)

	if !rl.allow() || !rl.allow() {
		t.Fatalf("first two frames must pass")
	}
	if rl.allow() {
		t.Fatalf("third frame in the window must be rejected")
	}

	mock.Add(time.Minute)
	if !rl.allow() {
		t.Fatalf("new window must reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, clock.NewMock())
	for i := 0; i < 1000; i++ {
		if !rl.allow() {
			t.Fatalf("disabled limiter rejected frame %d", i)
		}
	}
}
