package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. It is meant for single-instance
// deployments and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	blob      []byte
	memberID  string
	expiresAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
}

// Save stores an encoded copy of sess.
func (m *MemoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[sess.ID] = memoryEntry{blob: data, memberID: sess.MemberID, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	entry, ok := m.sessions[sessionID]
	if ok && !m.now().Before(entry.expiresAt) {
		delete(m.sessions, sessionID)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	sess, err := Decode(entry.blob)
	if err != nil {
		return nil, err
	}
	sess.ID = sessionID
	if sess.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session; missing sessions are ignored.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// MemberSessionCount returns the number of live sessions for memberID.
func (m *MemoryStore) MemberSessionCount(_ context.Context, memberID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, e := range m.sessions {
		if e.memberID == memberID && now.Before(e.expiresAt) {
			n++
		}
	}
	return n, nil
}
