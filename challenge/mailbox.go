package challenge

import (
	"context"
	"fmt"
	"sync"
)

type delivery struct {
	token string
	err   error
}

// Mailbox bridges a callback-style widget to Provider. The widget side calls
// Deliver or Fail; Execute blocks until one of them happens or ctx is done.
// At most one delivery is buffered; a newer delivery replaces an unread one.
type Mailbox struct {
	mu       sync.Mutex
	ch       chan delivery
	requests int
}

// NewMailbox returns an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan delivery, 1)}
}

// Deliver hands a solved token to the pending or next Execute call.
func (m *Mailbox) Deliver(token string) {
	m.put(delivery{token: token})
}

// Fail reports a widget error to the pending or next Execute call.
func (m *Mailbox) Fail(err error) {
	if err == nil {
		err = ErrProviderFailed
	}
	m.put(delivery{err: fmt.Errorf("%w: %v", ErrProviderFailed, err)})
}

// Requests returns how many times Execute has been called.
func (m *Mailbox) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// Execute waits for the next delivery.
func (m *Mailbox) Execute(ctx context.Context) (Result, error) {
	m.mu.Lock()
	m.requests++
	m.mu.Unlock()

	select {
	case d := <-m.ch:
		if d.err != nil {
			return Result{}, d.err
		}
		if d.token == "" {
			return Result{}, ErrNotVerified
		}
		return Result{Token: d.token}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Reset drops an unread delivery so the next Execute waits for a fresh token.
func (m *Mailbox) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.ch:
	default:
	}
}

func (m *Mailbox) put(d delivery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.ch:
	default:
	}
	m.ch <- d
}
