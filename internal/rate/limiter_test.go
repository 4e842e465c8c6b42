package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCounter(t *testing.T) (*RedisCounter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewRedis(rdb), mr
}

func TestRedisCounterFixedWindow(t *testing.T) {
	c, mr := newRedisCounter(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.Incr(ctx, "k", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != i {
			t.Fatalf("expected count %d, got %d", i, n)
		}
	}

	if ttl := mr.TTL("k"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window TTL set on first hit, got %v", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if n, _ := c.Count(ctx, "k"); n != 0 {
		t.Fatalf("expected window to expire, got %d", n)
	}
}

func TestRedisCounterReset(t *testing.T) {
	c, _ := newRedisCounter(t)
	ctx := context.Background()

	_, _ = c.Incr(ctx, "a", time.Minute)
	if err := c.Reset(ctx, "a"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := c.Count(ctx, "a"); n != 0 {
		t.Fatalf("expected zero after reset, got %d", n)
	}
}

func TestRedisCounterUnavailable(t *testing.T) {
	c, mr := newRedisCounter(t)
	mr.Close()

	if _, err := c.Incr(context.Background(), "k", time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestMemoryCounterFixedWindow(t *testing.T) {
	c := NewMemory()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = c.Incr(ctx, "k", time.Minute)
	n, _ := c.Incr(ctx, "k", time.Minute)
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}

	c.now = func() time.Time { return now.Add(30 * time.Second) }
	if n, _ := c.Incr(ctx, "k", time.Minute); n != 3 {
		t.Fatalf("expected window to stay fixed, got %d", n)
	}

	c.now = func() time.Time { return now.Add(time.Minute) }
	if n, _ := c.Count(ctx, "k"); n != 0 {
		t.Fatalf("expected expired window to count zero, got %d", n)
	}
	if n, _ := c.Incr(ctx, "k", time.Minute); n != 1 {
		t.Fatalf("expected new window, got %d", n)
	}
}
