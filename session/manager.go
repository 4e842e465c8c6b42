package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/mojito/jwt"
)

// ErrInvalidToken is returned when an access token fails verification.
var ErrInvalidToken = errors.New("invalid access token")

// Backend persists sessions.
type Backend interface {
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Manager turns verified access tokens into stored sessions.
type Manager struct {
	tokens  *jwt.Manager
	backend Backend
	maxTTL  time.Duration
	now     func() time.Time
	newID   func() string
}

// NewManager returns a Manager. maxTTL caps a session's lifetime below the
// token's own expiry; zero means the token's expiry alone applies.
func NewManager(tokens *jwt.Manager, backend Backend, maxTTL time.Duration) *Manager {
	return &Manager{
		tokens:  tokens,
		backend: backend,
		maxTTL:  maxTTL,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Ping checks that the backend is reachable. Backends without a Ping method
// are always reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil {
		return nil
	}
	if p, ok := m.backend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Create verifies accessToken and stores a new session for it.
func (m *Manager) Create(ctx context.Context, accessToken string) (*Session, error) {
	if m == nil || m.tokens == nil {
		return nil, ErrInvalidToken
	}
	claims, err := m.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	now := m.now()
	expires := claims.ExpiresAt.Time
	if m.maxTTL > 0 && expires.After(now.Add(m.maxTTL)) {
		expires = now.Add(m.maxTTL)
	}
	ttl := expires.Sub(now)
	if ttl <= 0 {
		return nil, ErrInvalidToken
	}

	sess := &Session{
		SchemaVersion: CurrentSchemaVersion,
		ID:            m.newID(),
		MemberID:      claims.MemberID,
		EmailAddress:  claims.EmailAddress,
		Nickname:      claims.Nickname,
		AccessToken:   accessToken,
		CreatedAt:     now.Unix(),
		ExpiresAt:     expires.Unix(),
	}
	if err := m.backend.Save(ctx, sess, ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a live session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	return m.backend.Get(ctx, sessionID)
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.backend.Delete(ctx, sessionID)
}
