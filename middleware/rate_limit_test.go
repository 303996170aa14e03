package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinWindow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, time.Minute)

	allowed, remaining, _ := rl.Check("10.0.0.1")
	if !allowed || remaining != 3 {
		t.Errorf("fresh IP: allowed=%v remaining=%d, want true/3", allowed, remaining)
	}

	rl.RecordAttempt("10.0.0.1", false)
	allowed, remaining, _ = rl.Check("10.0.0.1")
	if !allowed || remaining != 2 {
		t.Errorf("after one failure: allowed=%v remaining=%d, want true/2", allowed, remaining)
	}
}

func TestRateLimiterLocksAfterMaxAttempts(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, time.Minute)

	for i := 0; i < 3; i++ {
		rl.RecordAttempt("10.0.0.2", false)
	}

	allowed, _, lockDuration := rl.Check("10.0.0.2")
	if allowed {
		t.Error("IP should be locked after max failed attempts")
	}
	if lockDuration <= 0 {
		t.Errorf("lock duration = %v, want positive", lockDuration)
	}
}

func TestRateLimiterClearsOnSuccess(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, time.Minute)

	rl.RecordAttempt("10.0.0.3", false)
	rl.RecordAttempt("10.0.0.3", false)
	rl.RecordAttempt("10.0.0.3", true)

	allowed, remaining, _ := rl.Check("10.0.0.3")
	if !allowed || remaining != 3 {
		t.Errorf("after success: allowed=%v remaining=%d, want true/3", allowed, remaining)
	}
}

func TestRateLimiterLockExpires(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, 20*time.Millisecond)

	rl.RecordAttempt("10.0.0.4", false)
	rl.RecordAttempt("10.0.0.4", false)

	if allowed, _, _ := rl.Check("10.0.0.4"); allowed {
		t.Fatal("IP should be locked")
	}

	time.Sleep(30 * time.Millisecond)

	if allowed, _, _ := rl.Check("10.0.0.4"); !allowed {
		t.Error("lock should expire after lock duration")
	}
}

func TestRateLimiterIsolatesIPs(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, time.Minute)

	rl.RecordAttempt("10.0.0.5", false)
	rl.RecordAttempt("10.0.0.5", false)

	if allowed, _, _ := rl.Check("10.0.0.6"); !allowed {
		t.Error("unrelated IP should not be affected by another IP's lock")
	}
}
