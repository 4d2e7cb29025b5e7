package ratelimit

import (
	"context"
	"testing"

	"github.com/jamesdwilson/byteball-merchant/internal/config"
)

func TestAllowWithoutRedis(t *testing.T) {
	b := New(nil, config.RateLimitConfig{Enabled: true, Capacity: 1})
	ok, err := b.Allow(context.Background(), "DEVICE-A")
	if err != nil || !ok {
		t.Fatalf("nil client must allow: ok=%v err=%v", ok, err)
	}
}

func TestAllowWhenDisabled(t *testing.T) {
	b := New(nil, config.RateLimitConfig{Enabled: false})
	b.now = func() int64 { t.Fatal("disabled limiter must not touch the clock"); return 0 }
	ok, err := b.Allow(context.Background(), "DEVICE-A")
	if err != nil || !ok {
		t.Fatalf("disabled limiter must allow: ok=%v err=%v", ok, err)
	}
}
