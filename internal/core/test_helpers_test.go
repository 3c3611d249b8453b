package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventWhere(t, ch, kind, nil)
}

// mustEventWhere skips events until one of kind satisfies match.
func mustEventWhere(t *testing.T, ch <-chan *Event, kind EventKind, match func(*Event) bool) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind && (match == nil || match(ev)) {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustAck waits for the acknowledgement of request id.
func mustAck(t *testing.T, ch <-chan *Event, id string) *Event {
	t.Helper()
	return mustEventWhere(t, ch, EventAck, func(ev *Event) bool { return ev.RequestID == id })
}

func gameStatus(ev *Event) Status {
	if ev.State == nil || ev.State.Game == nil {
		return ""
	}
	return ev.State.Game.Status
}

// waitFor polls cond until it holds; timer callbacks on the mock clock run
// on their own goroutines.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
