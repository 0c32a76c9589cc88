package redis

import (
	"testing"

	"github.com/nivedithavs/trendora-backend/pkg/config"
)

func TestOptionsFromConfigRequiresURLOrAddr(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address provided")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@localhost:6380/2", PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 5 {
		t.Fatalf("expected pool size fallback, got %d", opts.PoolSize)
	}
}

func TestIdempotencyKeyNamespacing(t *testing.T) {
	c := &Client{}
	got := c.IdempotencyKey("finalize", "abc")
	if got != "trendora:idempotency:finalize:abc" {
		t.Fatalf("unexpected key %q", got)
	}
}
