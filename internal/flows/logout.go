package flows

import (
	"context"

	"github.com/MrEthical07/mojito/session"
)

type SignOutSessionStore interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// SignOutDeps captures sign-out dependencies.
type SignOutDeps struct {
	Sessions   SignOutSessionStore
	Remote     func(ctx context.Context, accessToken string) error
	IsNotFound func(error) bool

	MetricInc func(int)
	EmitAudit func(ctx context.Context, sessionID, memberID string, success bool, err error)
	Metric    int
}

type SignOutResult struct {
	MemberID string
	// RemoteErr is the failure of the server-side sign-out, if any. It does
	// not prevent the local session from being removed.
	RemoteErr error
	Err       error
}

// RunSignOut ends a local session and notifies the API. Unknown sessions are
// treated as already signed out.
func RunSignOut(ctx context.Context, sessionID string, deps SignOutDeps) SignOutResult {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, string, bool, error) {}
	}
	if deps.IsNotFound == nil {
		deps.IsNotFound = func(error) bool { return false }
	}

	sess, err := deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		if deps.IsNotFound(err) {
			return SignOutResult{}
		}
		deps.EmitAudit(ctx, sessionID, "", false, err)
		return SignOutResult{Err: err}
	}

	var remoteErr error
	if deps.Remote != nil && sess.AccessToken != "" {
		remoteErr = deps.Remote(ctx, sess.AccessToken)
	}

	if err := deps.Sessions.Delete(ctx, sessionID); err != nil && !deps.IsNotFound(err) {
		deps.EmitAudit(ctx, sessionID, sess.MemberID, false, err)
		return SignOutResult{MemberID: sess.MemberID, RemoteErr: remoteErr, Err: err}
	}

	deps.MetricInc(deps.Metric)
	deps.EmitAudit(ctx, sessionID, sess.MemberID, true, remoteErr)
	return SignOutResult{MemberID: sess.MemberID, RemoteErr: remoteErr}
}
