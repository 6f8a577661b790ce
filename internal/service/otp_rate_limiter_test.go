package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryOTPRateLimiter(t *testing.T) {
	limiter := NewOTPRateLimiter(time.Minute, 2)

	if !limiter.Allow("ann@x.com") || !limiter.Allow("ann@x.com") {
		t.Fatalf("expected first two requests allowed")
	}
	if limiter.Allow("ann@x.com") {
		t.Fatalf("expected third request within window blocked")
	}
	// Otra clave tiene su propia ventana.
	if !limiter.Allow("bob@x.com") {
		t.Fatalf("expected independent key allowed")
	}
}

type mockRedisEvaler struct {
	count int64
	err   error

	lastKeys []string
	lastArgs []interface{}
}

func (m *mockRedisEvaler) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.count)
	return cmd
}

func TestRedisOTPRateLimiter_Allow(t *testing.T) {
	evaler := &mockRedisEvaler{count: 2}
	limiter := &redisOTPRateLimiter{client: evaler, window: time.Minute, max: 2, prefix: "otp:rl:"}

	if !limiter.Allow(" Ann@X.com ") {
		t.Fatalf("expected allow at max count")
	}
	if len(evaler.lastKeys) != 1 || evaler.lastKeys[0] != "otp:rl:ann@x.com" {
		t.Fatalf("unexpected redis key: %v", evaler.lastKeys)
	}

	evaler.count = 3
	if limiter.Allow("ann@x.com") {
		t.Fatalf("expected block above max count")
	}
}

func TestRedisOTPRateLimiter_FailsOpen(t *testing.T) {
	evaler := &mockRedisEvaler{err: errors.New("redis down")}
	limiter := &redisOTPRateLimiter{client: evaler, window: time.Minute, max: 2, prefix: "otp:rl:"}

	if !limiter.Allow("ann@x.com") {
		t.Fatalf("expected fail-open on redis error")
	}
}

func TestRedisOTPRateLimiter_EmptyKey(t *testing.T) {
	limiter := &redisOTPRateLimiter{client: &mockRedisEvaler{count: 1}, window: time.Minute, max: 2, prefix: "otp:rl:"}
	if limiter.Allow("   ") {
		t.Fatalf("expected empty key rejected")
	}
}
