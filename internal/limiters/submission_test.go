package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mojito/internal/rate"
)

func testConfig() SubmissionConfig {
	return SubmissionConfig{
		EnableIdentifierThrottle: true,
		EnableIPThrottle:         true,
		MaxAttempts:              2,
		Window:                   time.Minute,
	}
}

func TestSubmissionLimiterByIdentifier(t *testing.T) {
	l := NewSubmissionLimiter(rate.NewMemory(), testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Check(ctx, "signup", "A@b.com", ""); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := l.Check(ctx, "signup", "a@b.com ", ""); !errors.Is(err, ErrSubmissionRateLimited) {
		t.Fatalf("expected normalized identifier to be limited, got %v", err)
	}
	if err := l.Check(ctx, "signin", "a@b.com", ""); err != nil {
		t.Fatalf("expected other kind to have its own budget, got %v", err)
	}
	if n, _ := l.Attempts(ctx, "signup", "a@b.com"); n != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", n)
	}
}

func TestSubmissionLimiterByIP(t *testing.T) {
	l := NewSubmissionLimiter(rate.NewMemory(), testConfig())
	ctx := context.Background()

	_ = l.Check(ctx, "report", "", "10.0.0.1")
	_ = l.Check(ctx, "report", "", "10.0.0.1")
	if err := l.Check(ctx, "report", "", "10.0.0.1"); !errors.Is(err, ErrSubmissionRateLimited) {
		t.Fatalf("expected ip throttle, got %v", err)
	}
	if err := l.Check(ctx, "report", "", "10.0.0.2"); err != nil {
		t.Fatalf("expected other ip to pass, got %v", err)
	}
}

func TestSubmissionLimiterRedisBacked(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewSubmissionLimiter(rate.NewRedis(rdb), testConfig())
	ctx := context.Background()

	_ = l.Check(ctx, "signup", "a@b.com", "")
	_ = l.Check(ctx, "signup", "a@b.com", "")
	if err := l.Check(ctx, "signup", "a@b.com", ""); !errors.Is(err, ErrSubmissionRateLimited) {
		t.Fatalf("expected limit, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.Check(ctx, "signup", "a@b.com", ""); err != nil {
		t.Fatalf("expected new window, got %v", err)
	}

	mr.Close()
	if err := l.Check(ctx, "signup", "a@b.com", ""); !errors.Is(err, ErrSubmissionUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestSubmissionLimiterNilSafe(t *testing.T) {
	var l *SubmissionLimiter
	if err := l.Check(context.Background(), "signup", "a@b.com", "1.2.3.4"); err != nil {
		t.Fatalf("nil limiter must allow, got %v", err)
	}
}
