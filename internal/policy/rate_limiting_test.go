package policy

import (
	"testing"
	"time"
)

func TestNewRateLimitingPolicy(t *testing.T) {
	policy := NewRateLimitingPolicy(10)
	if policy == nil {
		t.Fatalf("expected policy to be created")
	}
	if !policy.Enabled() {
		t.Fatalf("expected policy to be enabled")
	}
	if policy.Name() != "rate_limiting" {
		t.Fatalf("expected name to be 'rate_limiting', got %s", policy.Name())
	}
}

func TestRateLimitingPolicyAllowRequest(t *testing.T) {
	policy := NewRateLimitingPolicy(2) // 2 steps per second
	now := time.Now()

	if !policy.AllowRequest("sess-1", now) {
		t.Fatalf("expected first request to be allowed")
	}
	if !policy.AllowRequest("sess-1", now) {
		t.Fatalf("expected second request to be allowed")
	}
	// Third request should be rejected (rate limit exceeded)
	if policy.AllowRequest("sess-1", now) {
		t.Fatalf("expected third request to be rejected")
	}

	// After 1 second, tokens should refill
	afterSecond := now.Add(1 * time.Second)
	if !policy.AllowRequest("sess-1", afterSecond) {
		t.Fatalf("expected request after 1 second to be allowed")
	}
}

func TestRateLimitingPolicyDifferentKeys(t *testing.T) {
	policy := NewRateLimitingPolicy(1)
	now := time.Now()

	if !policy.AllowRequest("a", now) {
		t.Fatalf("expected request for a to be allowed")
	}
	if !policy.AllowRequest("b", now) {
		t.Fatalf("expected request for b to be allowed")
	}
	if policy.AllowRequest("a", now) {
		t.Fatalf("expected second request for a to be rejected")
	}
}

func TestRateLimitingPolicyGetRemainingQuota(t *testing.T) {
	policy := NewRateLimitingPolicy(5)
	now := time.Now()

	if got := policy.GetRemainingQuota("a", now); got != 5 {
		t.Fatalf("expected full quota 5 for unseen key, got %d", got)
	}
	policy.AllowRequest("a", now)
	policy.AllowRequest("a", now)
	if got := policy.GetRemainingQuota("a", now); got != 3 {
		t.Fatalf("expected quota 3, got %d", got)
	}
	if got := policy.GetRemainingQuota("a", now.Add(10*time.Second)); got != 5 {
		t.Fatalf("expected refill capped at capacity 5, got %d", got)
	}
}

func TestRateLimitingPolicyForget(t *testing.T) {
	policy := NewRateLimitingPolicy(1)
	now := time.Now()

	policy.AllowRequest("a", now)
	if policy.AllowRequest("a", now) {
		t.Fatalf("expected bucket to be empty")
	}
	policy.Forget("a")
	if !policy.AllowRequest("a", now) {
		t.Fatalf("expected a fresh bucket after Forget")
	}
}

func TestRateLimitingPolicyWhenDisabled(t *testing.T) {
	policy := NewRateLimitingPolicy(0)
	if policy.Enabled() {
		t.Fatalf("expected policy to be disabled")
	}
	now := time.Now()
	for i := 0; i < 100; i++ {
		if !policy.AllowRequest("a", now) {
			t.Fatalf("expected every request to be allowed when disabled")
		}
	}
	if got := policy.GetRemainingQuota("a", now); got != -1 {
		t.Fatalf("expected -1 when disabled, got %d", got)
	}
}
