package limiters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/mojito/internal/rate"
)

var (
	ErrSubmissionRateLimited = errors.New("submission rate limited")
	ErrSubmissionUnavailable = errors.New("submission limiter unavailable")
)

type SubmissionConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxAttempts              int
	Window                   time.Duration
}

// SubmissionLimiter throttles verification-gated submissions per flow kind,
// by identifier (the submitted email address) and by client IP.
type SubmissionLimiter struct {
	counter rate.Counter
	config  SubmissionConfig
}

func NewSubmissionLimiter(counter rate.Counter, cfg SubmissionConfig) *SubmissionLimiter {
	return &SubmissionLimiter{
		counter: counter,
		config:  cfg,
	}
}

// Check records one attempt and reports whether it exceeds the budget.
// Empty identifier or ip skips that dimension.
func (l *SubmissionLimiter) Check(ctx context.Context, kind, identifier, ip string) error {
	if l == nil || l.counter == nil {
		return nil
	}
	if l.config.EnableIdentifierThrottle && identifier != "" {
		if err := l.enforceFixedWindow(ctx, identifierKey(kind, identifier)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, ipKey(kind, ip)); err != nil {
			return err
		}
	}
	return nil
}

// Attempts returns the attempts recorded for identifier in the current window.
func (l *SubmissionLimiter) Attempts(ctx context.Context, kind, identifier string) (int, error) {
	if l == nil || l.counter == nil {
		return 0, nil
	}
	n, err := l.counter.Count(ctx, identifierKey(kind, identifier))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSubmissionUnavailable, err)
	}
	return int(n), nil
}

// Cooldown is the longest a denied caller waits before its window resets.
func (l *SubmissionLimiter) Cooldown() time.Duration {
	if l == nil {
		return 0
	}
	return l.config.Window
}

func (l *SubmissionLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.counter.Incr(ctx, key, l.config.Window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmissionUnavailable, err)
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrSubmissionRateLimited
	}
	return nil
}

func identifierKey(kind, identifier string) string {
	return "msi:" + kind + ":" + strings.ToLower(strings.TrimSpace(identifier))
}

func ipKey(kind, ip string) string {
	return "msip:" + kind + ":" + ip
}
