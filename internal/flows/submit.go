package flows

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/workflow"
)

// ChallengeFailedKey is the banner shown when no challenge token could be
// obtained.
const ChallengeFailedKey = "challenge.failed"

// Response is what a flow call observed from the remote API. Status 0 means
// no response was received.
type Response struct {
	Status int
	Body   []byte
	// Values carries data the call extracted and stored on the side, such as
	// the id of a session created from a sign-in token.
	Values map[string]string
}

type SubmitMetrics struct {
	SubmitAttempt        int
	ValidationRejected   int
	RateLimited          int
	ChallengeAcquired    int
	ChallengeFailed      int
	ChallengeReset       int
	TransportFailure     int
	OutcomeSuccess       int
	OutcomeConflict      int
	OutcomeNotFound      int
	OutcomeServerFailure int
}

type SubmitEvents struct {
	Validation  string
	RateLimited string
	Challenge   string
	Outcome     string
	Aborted     string
}

type SubmitErrors struct {
	EngineNotReady error
	Terminal       error
	InFlight       error
	WrongStep      error
}

// SubmitDeps captures one flow kind's submission dependencies.
type SubmitDeps struct {
	// Validate returns the banner key of the first failed local check, or "".
	Validate func(workflow.State, workflow.FormInput) string
	// Allow consults the submission limiter. Limiter faults must be resolved
	// by the caller; Allow only answers yes or no.
	Allow func(context.Context, workflow.State, workflow.FormInput) bool
	// Checkpoint publishes an intermediate state, for example so a concurrent
	// reader sees the progress indicator.
	Checkpoint func(context.Context, workflow.State)

	ChallengeAttempts int
	ChallengeTimeout  time.Duration

	Call     func(context.Context, workflow.State, workflow.FormInput, string) (Response, error)
	Classify func(workflow.State, Response) workflow.Decision

	Now            func() time.Time
	MetricInc      func(int)
	ObserveLatency func(time.Duration)
	EmitAudit      func(context.Context, string, workflow.State, bool, error, func() map[string]string)

	Metrics SubmitMetrics
	Events  SubmitEvents
	Errors  SubmitErrors
}

// SubmitResult is the state after one attempt.
type SubmitResult struct {
	State  workflow.State
	Status int
	// Called reports whether the remote API was contacted.
	Called bool
}

// RunSubmit drives one form submission: local validation, rate limit,
// challenge acquisition, exactly one remote call, classification.
//
// User-facing failures come back as a state with a banner or outcome and a
// nil error. Errors are returned for events that do not apply to the state
// and for caller cancellation; on cancellation the returned state has its
// progress markers cleared.
func RunSubmit(ctx context.Context, s workflow.State, input workflow.FormInput, provider challenge.Provider, deps SubmitDeps) (SubmitResult, error) {
	return runAttempt(ctx, s, workflow.StepForm, input, provider, deps)
}

// RunTokenCheck drives the automatic link verification that precedes the
// form of link-driven flows.
func RunTokenCheck(ctx context.Context, s workflow.State, provider challenge.Provider, deps SubmitDeps) (SubmitResult, error) {
	deps.Validate = nil
	return runAttempt(ctx, s, workflow.StepTokenCheck, nil, provider, deps)
}

func runAttempt(ctx context.Context, s workflow.State, step workflow.Step, input workflow.FormInput, provider challenge.Provider, deps SubmitDeps) (SubmitResult, error) {
	normalizeSubmitDeps(&deps)

	if deps.Call == nil || deps.Classify == nil || provider == nil {
		return SubmitResult{State: s}, deps.Errors.EngineNotReady
	}
	if err := s.CanSubmit(step); err != nil {
		return SubmitResult{State: s}, mapStateError(err, deps.Errors)
	}

	deps.MetricInc(deps.Metrics.SubmitAttempt)

	if deps.Validate != nil {
		if key := deps.Validate(s, input); key != "" {
			next := workflow.RejectInput(s, key, deps.Now())
			deps.MetricInc(deps.Metrics.ValidationRejected)
			deps.EmitAudit(ctx, deps.Events.Validation, next, false, nil, func() map[string]string {
				return map[string]string{"reason": key}
			})
			return SubmitResult{State: next}, nil
		}
	}

	if deps.Allow != nil && !deps.Allow(ctx, s, input) {
		next := workflow.Throttle(s, deps.Now())
		deps.MetricInc(deps.Metrics.RateLimited)
		deps.EmitAudit(ctx, deps.Events.RateLimited, next, false, nil, nil)
		return SubmitResult{State: next}, nil
	}

	next := workflow.BeginSubmit(s, deps.Now())
	next = workflow.AwaitChallenge(next, deps.Now())
	deps.Checkpoint(ctx, next)

	token, err := acquireChallenge(ctx, provider, deps)
	if err != nil {
		provider.Reset()
		deps.MetricInc(deps.Metrics.ChallengeReset)
		if ctxErr := ctx.Err(); ctxErr != nil {
			aborted := workflow.Abort(next, deps.Now())
			deps.EmitAudit(ctx, deps.Events.Aborted, aborted, false, ctxErr, nil)
			return SubmitResult{State: aborted}, ctxErr
		}
		failed := workflow.FailChallenge(next, ChallengeFailedKey, deps.Now())
		deps.MetricInc(deps.Metrics.ChallengeFailed)
		deps.EmitAudit(ctx, deps.Events.Challenge, failed, false, err, nil)
		return SubmitResult{State: failed}, nil
	}

	next = workflow.ResolveChallenge(next, token, deps.Now())
	deps.MetricInc(deps.Metrics.ChallengeAcquired)
	deps.Checkpoint(ctx, next)

	start := deps.Now()
	resp, callErr := deps.Call(ctx, next, input, token)
	deps.ObserveLatency(deps.Now().Sub(start))

	// The token is single use whatever the response was.
	provider.Reset()
	deps.MetricInc(deps.Metrics.ChallengeReset)

	if callErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			aborted := workflow.Abort(next, deps.Now())
			deps.EmitAudit(ctx, deps.Events.Aborted, aborted, false, ctxErr, nil)
			return SubmitResult{State: aborted, Called: true}, ctxErr
		}
		deps.MetricInc(deps.Metrics.TransportFailure)
		resp = Response{Status: 0}
	}

	decision := deps.Classify(next, resp)
	final := workflow.Respond(next, decision, deps.Now())
	deps.MetricInc(bucketMetric(decision.Bucket, deps.Metrics))

	success := decision.Bucket == workflow.BucketSuccess
	deps.EmitAudit(ctx, deps.Events.Outcome, final, success, callErr, func() map[string]string {
		return map[string]string{
			"bucket": string(decision.Bucket),
			"status": statusText(resp.Status),
		}
	})

	return SubmitResult{State: final, Status: resp.Status, Called: true}, nil
}

// acquireChallenge retries the provider until it yields a non-empty token,
// the attempt budget is spent, or the acquisition timeout fires.
func acquireChallenge(ctx context.Context, provider challenge.Provider, deps SubmitDeps) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, deps.ChallengeTimeout)
	defer cancel()

	lastErr := challenge.ErrNotVerified
	for attempt := 0; attempt < deps.ChallengeAttempts; attempt++ {
		res, err := provider.Execute(cctx)
		if err == nil && res.Token != "" {
			return res.Token, nil
		}
		if err != nil {
			lastErr = err
		}
		if cctx.Err() != nil {
			return "", errors.Join(lastErr, cctx.Err())
		}
	}
	return "", lastErr
}

func mapStateError(err error, errs SubmitErrors) error {
	switch {
	case errors.Is(err, workflow.ErrTerminal):
		return errs.Terminal
	case errors.Is(err, workflow.ErrInFlight):
		return errs.InFlight
	case errors.Is(err, workflow.ErrWrongStep):
		return errs.WrongStep
	default:
		return err
	}
}

func bucketMetric(b workflow.Bucket, m SubmitMetrics) int {
	switch b {
	case workflow.BucketSuccess:
		return m.OutcomeSuccess
	case workflow.BucketConflict:
		return m.OutcomeConflict
	case workflow.BucketNotFound:
		return m.OutcomeNotFound
	default:
		return m.OutcomeServerFailure
	}
}

func statusText(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}

func normalizeSubmitDeps(deps *SubmitDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ChallengeAttempts <= 0 {
		deps.ChallengeAttempts = 3
	}
	if deps.ChallengeTimeout <= 0 {
		deps.ChallengeTimeout = 2 * time.Minute
	}
	if deps.Checkpoint == nil {
		deps.Checkpoint = func(context.Context, workflow.State) {}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.ObserveLatency == nil {
		deps.ObserveLatency = func(time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, workflow.State, bool, error, func() map[string]string) {}
	}
	if deps.Errors.EngineNotReady == nil {
		deps.Errors.EngineNotReady = errors.New("flow not ready")
	}
	if deps.Errors.Terminal == nil {
		deps.Errors.Terminal = workflow.ErrTerminal
	}
	if deps.Errors.InFlight == nil {
		deps.Errors.InFlight = workflow.ErrInFlight
	}
	if deps.Errors.WrongStep == nil {
		deps.Errors.WrongStep = workflow.ErrWrongStep
	}
}
