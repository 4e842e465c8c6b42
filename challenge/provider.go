// Package challenge defines the anti-automation provider contract used to gate
// submissions, plus adapters for the ways a token reaches the server.
//
// A [Provider] produces a single-use token on demand through Execute and
// invalidates it through Reset, so the next Execute yields a fresh one.
// Tokens are opaque; an empty token means "not yet verified".
//
// Adapters:
//
//   - [Static]: a token that was already solved elsewhere (for example by the
//     browser widget) and travels with the request. Usable once.
//   - [Mailbox]: a token delivered asynchronously by a callback; Execute waits
//     for delivery or context cancellation.
//   - [Func]: wraps a plain function.
package challenge

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotVerified is returned when no token is available yet.
	ErrNotVerified = errors.New("challenge not verified")
	// ErrProviderFailed is returned by Mailbox when the widget reported an error.
	ErrProviderFailed = errors.New("challenge provider failed")
)

// Result is the outcome of one Execute call.
type Result struct {
	Token string
}

// Provider acquires and invalidates challenge tokens.
type Provider interface {
	Execute(ctx context.Context) (Result, error)
	Reset()
}

// Static serves a pre-solved token once. After Reset, or after the token has
// been handed out, Execute returns ErrNotVerified.
type Static struct {
	mu    sync.Mutex
	token string
}

// NewStatic returns a Static provider for token.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Execute returns the stored token and consumes it.
func (s *Static) Execute(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return Result{}, ErrNotVerified
	}
	token := s.token
	s.token = ""
	return Result{Token: token}, nil
}

// Reset discards any unused token.
func (s *Static) Reset() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Func adapts a function to Provider. Reset is a no-op.
type Func func(ctx context.Context) (Result, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context) (Result, error) {
	return f(ctx)
}

// Reset does nothing; a Func produces a fresh token on every call.
func (Func) Reset() {}
