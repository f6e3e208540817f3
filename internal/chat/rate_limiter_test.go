package chat

import (
	"testing"
	"time"
)

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := newRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("expected allow within burst, denied at %d", i)
		}
	}
	if rl.allow() {
		t.Fatalf("expected deny once burst is spent")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := newRateLimiter(2, 20*time.Millisecond)

	if !rl.allow() || !rl.allow() {
		t.Fatalf("expected initial burst")
	}
	if rl.allow() {
		t.Fatalf("expected deny after burst")
	}

	time.Sleep(40 * time.Millisecond)
	if !rl.allow() {
		t.Fatalf("expected allow after refill window")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := newRateLimiter(0, 0)
	if !rl.allow() {
		t.Fatalf("expected at least one token with defaults")
	}
}
