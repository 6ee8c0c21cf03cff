package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_BurstThenBlocked(t *testing.T) {
	rl := New(1, 3)
	defer rl.Stop()

	passed := 0
	for i := 0; i < 5; i++ {
		if rl.Allow("10.0.0.1") {
			passed++
		}
	}
	if passed != 3 {
		t.Errorf("passed %d requests, want 3", passed)
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Error("first key should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("first key should be exhausted")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second key should have its own bucket")
	}
}

func TestAllow_Refills(t *testing.T) {
	rl := New(50, 1) // refill every 20ms
	defer rl.Stop()

	if !rl.Allow("k") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("k") {
		t.Fatal("burst should be exhausted")
	}

	time.Sleep(50 * time.Millisecond)
	if !rl.Allow("k") {
		t.Error("bucket should have refilled")
	}
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
