//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/pkg/config"
)

var _ fiber.Storage = (*RedisStorage)(nil)

func newRedisStorage(t *testing.T) *RedisStorage {
	t.Helper()
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()

	// CI provides its own Redis
	if url := os.Getenv("REDIS_URL"); url != "" {
		s, err := NewRedisStorage(config.RedisConfig{URL: url}, logger)
		if err != nil {
			t.Fatalf("failed to connect to external redis: %v", err)
		}
		t.Cleanup(func() { _ = s.Reset(); _ = s.Close() })
		return s
	}

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	s, err := NewRedisStorage(config.RedisConfig{URL: url}, logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStorage_Lifecycle(t *testing.T) {
	s := newRedisStorage(t)

	got, err := s.Get("missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing key, got %q, %v", got, err)
	}

	if err := s.Set("limiter_1.2.3.4", []byte("7"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = s.Get("limiter_1.2.3.4")
	if err != nil || string(got) != "7" {
		t.Errorf("expected 7, got %q, %v", got, err)
	}

	if err := s.Delete("limiter_1.2.3.4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.Get("limiter_1.2.3.4"); got != nil {
		t.Errorf("expected key to be gone, got %q", got)
	}
}

func TestRedisStorage_Expiry(t *testing.T) {
	s := newRedisStorage(t)

	if err := s.Set("short", []byte("1"), 1100*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(1500 * time.Millisecond)

	if got, _ := s.Get("short"); got != nil {
		t.Errorf("expected expired key, got %q", got)
	}
}

func TestRedisStorage_Reset(t *testing.T) {
	s := newRedisStorage(t)

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(k, []byte("x"), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if got, _ := s.Get(k); got != nil {
			t.Errorf("expected %s to be reset", k)
		}
	}
}

func TestRedisStorage_Ping(t *testing.T) {
	s := newRedisStorage(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
