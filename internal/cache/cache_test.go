package cache

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/credit-calculator/internal/config"
	"github.com/iwvelando/credit-calculator/pkg/loans"
)

func TestCalculationKey(t *testing.T) {
	base := loans.Request{Principal: 100000000, AnnualRatePercent: 12.5, TermMonths: 12}
	if got := CalculationKey(base); got != "credit:calculation:100000000:12.5:12" {
		t.Errorf("CalculationKey() = %q", got)
	}

	variants := []loans.Request{
		{Principal: 100000000.01, AnnualRatePercent: 12.5, TermMonths: 12},
		{Principal: 100000000, AnnualRatePercent: 12.25, TermMonths: 12},
		{Principal: 100000000, AnnualRatePercent: 12.5, TermMonths: 24},
	}
	for _, v := range variants {
		if CalculationKey(v) == CalculationKey(base) {
			t.Errorf("CalculationKey(%+v) collides with base request", v)
		}
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	value := []byte("payload")
	if err := c.Set(ctx, "k", value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'X'

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "payload" {
		t.Fatalf("Get(k) = %q, %v, %v", got, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	now = now.Add(365 * 24 * time.Hour)
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Error("expected entry without ttl to persist")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "forever"); ok {
		t.Error("expected Close to clear entries")
	}
}

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NopCache{}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get() = %v, %v", ok, err)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		driver  string
		wantErr bool
		check   func(Cache) bool
	}{
		{"", false, func(c Cache) bool { _, ok := c.(NopCache); return ok }},
		{"none", false, func(c Cache) bool { _, ok := c.(NopCache); return ok }},
		{"memory", false, func(c Cache) bool { _, ok := c.(*MemoryCache); return ok }},
		{"memcached", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			c, err := New(ctx, config.CacheConfig{Driver: tt.driver, TTL: time.Minute}, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(c) {
				t.Errorf("New() returned %T", c)
			}
		})
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedisCache(ctx, config.CacheConfig{Address: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
