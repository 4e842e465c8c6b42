package mojito

import (
	"context"
	"errors"

	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/session"
	"github.com/MrEthical07/mojito/workflow"
)

const (
	auditEventWorkflowStarted       = "workflow_started"
	auditEventWorkflowAbandoned     = "workflow_abandoned"
	auditEventLanguageToggled       = "language_toggled"
	auditEventSubmissionRejected    = "submission_rejected"
	auditEventSubmissionRateLimited = "submission_rate_limited"
	auditEventChallengeFailed       = "challenge_failed"
	auditEventSubmissionOutcome     = "submission_outcome"
	auditEventSubmissionAborted     = "submission_aborted"
	auditEventSignOut               = "signout"
)

// AuditErrorCode is the coarse error class recorded on failed audit events.
// Raw error text never reaches a sink.
type AuditErrorCode string

const (
	auditErrCancelled        AuditErrorCode = "cancelled"
	auditErrChallengeFailed  AuditErrorCode = "challenge_failed"
	auditErrSessionNotFound  AuditErrorCode = "session_not_found"
	auditErrSessionInvalid   AuditErrorCode = "session_invalid"
	auditErrStoreUnavailable AuditErrorCode = "store_unavailable"
	auditErrRemoteFailure    AuditErrorCode = "remote_failure"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	st workflow.State,
	success bool,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if st.Banner != nil && st.Banner.Visible {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["banner"] = st.Banner.Key
	}

	event := AuditEvent{
		Timestamp:  e.now().UTC(),
		EventType:  eventType,
		WorkflowID: st.ID,
		Kind:       string(st.Kind),
		Step:       string(st.Step),
		IP:         ClientIPFromContext(ctx),
		Success:    success,
		Metadata:   metadata,
	}
	if st.Outcome != nil {
		event.Outcome = string(st.Outcome.Bucket)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitSessionAudit(ctx context.Context, sessionID, memberID string, success bool, err error) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: auditEventSignOut,
		SessionID: sessionID,
		MemberID:  memberID,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, challenge.ErrNotVerified), errors.Is(err, challenge.ErrProviderFailed):
		return auditErrChallengeFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCancelled
	case errors.Is(err, session.ErrNotFound), errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrSessionCorrupt), errors.Is(err, ErrSessionInvalid):
		return auditErrSessionInvalid
	case errors.Is(err, session.ErrRedisUnavailable), errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrRemoteFailure
	}
}
