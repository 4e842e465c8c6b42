package session

import "time"

// Session is a signed-in member as seen by the web tier.
//
// AccessToken is the bearer token issued by the member API. It is forwarded
// on authenticated calls and never rendered.
type Session struct {
	SchemaVersion uint8
	ID            string

	MemberID     string
	EmailAddress string
	Nickname     string
	AccessToken  string

	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the session has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// TTL returns the remaining lifetime at now, or zero when expired.
func (s *Session) TTL(now time.Time) time.Duration {
	if s.ExpiresAt == 0 {
		return 0
	}
	left := time.Unix(s.ExpiresAt, 0).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
