package mojito

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/mojito/apiclient"
	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/internal/limiters"
	"github.com/MrEthical07/mojito/session"
	"github.com/MrEthical07/mojito/workflow"
)

// flowDeps wires every flow kind once at Build.
func (e *Engine) flowDeps() flows.Deps {
	deps := flows.Deps{
		Submit: map[workflow.Kind]flows.SubmitDeps{
			workflow.KindSignUp:               e.submitDeps(e.validateSignUp, e.callSignUp, classifySignUp),
			workflow.KindSignIn:               e.submitDeps(validateSignIn, e.callSignIn, classifySignIn),
			workflow.KindPasswordResetRequest: e.submitDeps(validateResetRequest, e.callResetRequest, classifyResetRequest),
			workflow.KindPasswordReset:        e.submitDeps(e.validateResetPassword, e.callResetPassword, classifyResetPassword),
			workflow.KindAccountVerification:  e.submitDeps(nil, e.callAccountVerification, classifyVerification("verify", workflow.AffordanceSignIn)),
			workflow.KindEmailVerification:    e.submitDeps(nil, e.callEmailVerification, classifyVerification("emailverify", workflow.AffordanceHome)),
			workflow.KindReport:               e.submitDeps(validateReport, e.callReport, classifyReport),
		},
		Load: map[workflow.Kind]flows.LoadDeps{
			workflow.KindReport: e.loadDeps(e.callAffairInfo, classifyAffairInfo),
		},
		SignOut: flows.SignOutDeps{
			Sessions:   e.sessions,
			Remote:     e.remoteSignOut,
			IsNotFound: func(err error) bool { return errors.Is(err, session.ErrNotFound) },
			MetricInc:  e.flowMetricInc,
			EmitAudit:  e.emitSessionAudit,
			Metric:     int(MetricSignOut),
		},
	}
	return deps
}

type (
	validateFunc func(workflow.State, workflow.FormInput) string
	callFunc     func(context.Context, workflow.State, workflow.FormInput, string) (flows.Response, error)
	classifyFunc func(workflow.State, flows.Response) workflow.Decision
)

func (e *Engine) submitDeps(v validateFunc, call callFunc, classify classifyFunc) flows.SubmitDeps {
	deps := flows.SubmitDeps{
		Checkpoint:        e.checkpoint,
		ChallengeAttempts: e.config.Challenge.MaxAttempts,
		ChallengeTimeout:  e.config.Challenge.Timeout,
		Call:              call,
		Classify:          classify,
		Now:               e.now,
		MetricInc:         e.flowMetricInc,
		ObserveLatency:    e.observeLatency,
		EmitAudit:         e.emitAudit,
		Metrics:           submitMetrics(),
		Events:            submitEvents(),
		Errors:            submitErrors(),
	}
	if v != nil {
		deps.Validate = v
	}
	if e.limiter != nil {
		deps.Allow = e.allowSubmission
	}
	return deps
}

func (e *Engine) loadDeps(call func(context.Context, workflow.State) (flows.Response, error), classify classifyFunc) flows.LoadDeps {
	return flows.LoadDeps{
		Call:      call,
		Classify:  classify,
		Now:       e.now,
		MetricInc: e.flowMetricInc,
		EmitAudit: e.emitAudit,
		Metrics:   submitMetrics(),
		Events:    submitEvents(),
		Errors:    submitErrors(),
	}
}

func submitMetrics() flows.SubmitMetrics {
	return flows.SubmitMetrics{
		SubmitAttempt:        int(MetricSubmitAttempt),
		ValidationRejected:   int(MetricValidationRejected),
		RateLimited:          int(MetricRateLimited),
		ChallengeAcquired:    int(MetricChallengeAcquired),
		ChallengeFailed:      int(MetricChallengeFailed),
		ChallengeReset:       int(MetricChallengeReset),
		TransportFailure:     int(MetricTransportFailure),
		OutcomeSuccess:       int(MetricOutcomeSuccess),
		OutcomeConflict:      int(MetricOutcomeConflict),
		OutcomeNotFound:      int(MetricOutcomeNotFound),
		OutcomeServerFailure: int(MetricOutcomeServerFailure),
	}
}

func submitEvents() flows.SubmitEvents {
	return flows.SubmitEvents{
		Validation:  auditEventSubmissionRejected,
		RateLimited: auditEventSubmissionRateLimited,
		Challenge:   auditEventChallengeFailed,
		Outcome:     auditEventSubmissionOutcome,
		Aborted:     auditEventSubmissionAborted,
	}
}

func submitErrors() flows.SubmitErrors {
	return flows.SubmitErrors{
		EngineNotReady: ErrEngineNotReady,
		Terminal:       ErrWorkflowTerminal,
		InFlight:       ErrSubmissionInFlight,
		WrongStep:      ErrWrongStep,
	}
}

func (e *Engine) flowMetricInc(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) observeLatency(d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricSubmitLatency, d)
}

// allowSubmission consumes one unit of the kind's submission budget for the
// submitted identifier and the caller's IP.
func (e *Engine) allowSubmission(ctx context.Context, st workflow.State, input workflow.FormInput) bool {
	err := e.limiter.Check(ctx, string(st.Kind), limiterIdentifier(st, input), ClientIPFromContext(ctx))
	switch {
	case err == nil:
		return true
	case errors.Is(err, limiters.ErrSubmissionRateLimited):
		return false
	default:
		e.logger.Warn("submission limiter unavailable",
			zap.String("workflow_id", st.ID),
			zap.String("kind", string(st.Kind)),
			zap.Bool("fail_closed", e.config.Limiter.FailClosed),
			zap.Error(err),
		)
		return !e.config.Limiter.FailClosed
	}
}

func limiterIdentifier(st workflow.State, input workflow.FormInput) string {
	if v := input.Get(workflow.FieldEmailAddress); v != "" {
		return v
	}
	if v := st.Value(workflow.ContextEmailAddress); v != "" {
		return v
	}
	if v := st.Value(workflow.ContextAffairID); v != "" {
		return v
	}
	return st.Value(workflow.ContextRequestInfo)
}

func fromAPI(resp apiclient.Response, err error) (flows.Response, error) {
	if err != nil {
		return flows.Response{}, err
	}
	return flows.Response{Status: resp.StatusCode, Body: resp.Body}, nil
}

func (e *Engine) remoteSignOut(ctx context.Context, accessToken string) error {
	resp, err := e.api.SignOut(ctx, accessToken)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("remote sign-out returned status %d", resp.StatusCode)
	}
	return nil
}

/*
====================================
DECISIONS
====================================
*/

func finish(bucket workflow.Bucket, status int, prefix string, affordance workflow.Affordance) workflow.Decision {
	return workflow.Finish(bucket, status, prefix+".title", prefix+".body", affordance)
}

// genericFailure is the retry-later result shared by every flow.
func genericFailure(status int) workflow.Decision {
	return finish(workflow.BucketServerFailure, status, "error.generic", workflow.AffordanceRestart)
}

func signInRequired() workflow.Decision {
	return finish(workflow.BucketNotFound, 401, "error.signinRequired", workflow.AffordanceSignIn)
}
