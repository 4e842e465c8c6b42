package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/mojito"
	"github.com/MrEthical07/mojito/session"
)

// SessionCookieName is the cookie carrying the member session id.
const SessionCookieName = "mojito_session"

// SessionResolver looks up a member session. *mojito.Engine implements it.
type SessionResolver interface {
	Session(ctx context.Context, sessionID string) (*session.Session, error)
}

type sessionContextKey struct{}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// SessionID returns the session id from the request cookie, or "".
func SessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireSession rejects requests without a live member session with 401.
// A failing session backend yields 500.
func RequireSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			id := SessionID(r)
			if id == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := resolver.Session(r.Context(), id)
			switch {
			case err == nil:
			case errors.Is(err, mojito.ErrSessionNotFound), errors.Is(err, mojito.ErrSessionInvalid):
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
