package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterEnforcesQuota(t *testing.T) {
	rds := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(rds.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("client-a") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow("client-a") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow("client-a") {
		t.Fatalf("third request should be rejected")
	}
	if !limiter.Allow("client-b") {
		t.Fatalf("different key should have its own quota")
	}
}

func TestFixedWindowLimiterFailsClosedWithoutRedis(t *testing.T) {
	rds := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(rds.Addr(), "", "test:ratelimit", 5, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	rds.Close()
	if limiter.Allow("client-a") {
		t.Fatalf("expected limiter to fail closed when redis is down")
	}
}

func TestNewRedisFixedWindowLimiterValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "", 5, time.Minute); err == nil {
		t.Fatalf("expected error for missing addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "", 0, time.Minute); err == nil {
		t.Fatalf("expected error for non-positive limit")
	}
}
