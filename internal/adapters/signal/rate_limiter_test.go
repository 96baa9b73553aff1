package signal

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two attempts refused")
	}
	if rl.Allow("a") {
		t.Fatal("third attempt allowed")
	}
	if !rl.Allow("b") {
		t.Fatal("limit leaked across peers")
	}

	now = now.Add(1100 * time.Millisecond)
	if !rl.Allow("a") {
		t.Fatal("attempt after window refused")
	}
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.Allow("a")
	if rl.Allow("a") {
		t.Fatal("limit not applied")
	}
	rl.Forget("a")
	if !rl.Allow("a") {
		t.Fatal("history kept after Forget")
	}
}
