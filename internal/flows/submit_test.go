package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/session"
	"github.com/MrEthical07/mojito/workflow"
)

type countingProvider struct {
	mu       sync.Mutex
	tokens   []string
	errs     []error
	executes int
	resets   int
	block    bool
}

func (p *countingProvider) Execute(ctx context.Context) (challenge.Result, error) {
	p.mu.Lock()
	i := p.executes
	p.executes++
	block := p.block
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return challenge.Result{}, ctx.Err()
	}
	if i < len(p.errs) && p.errs[i] != nil {
		return challenge.Result{}, p.errs[i]
	}
	if i < len(p.tokens) {
		return challenge.Result{Token: p.tokens[i]}, nil
	}
	return challenge.Result{}, challenge.ErrNotVerified
}

func (p *countingProvider) Reset() {
	p.mu.Lock()
	p.resets++
	p.mu.Unlock()
}

type recorder struct {
	mu      sync.Mutex
	metrics map[int]int
	events  []string
	calls   int
	tokens  []string
}

func (r *recorder) inc(id int) {
	r.mu.Lock()
	r.metrics[id]++
	r.mu.Unlock()
}

func (r *recorder) audit(_ context.Context, event string, _ workflow.State, _ bool, _ error, _ func() map[string]string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

var testMetrics = SubmitMetrics{
	SubmitAttempt:        1,
	ValidationRejected:   2,
	RateLimited:          3,
	ChallengeAcquired:    4,
	ChallengeFailed:      5,
	ChallengeReset:       6,
	TransportFailure:     7,
	OutcomeSuccess:       8,
	OutcomeConflict:      9,
	OutcomeNotFound:      10,
	OutcomeServerFailure: 11,
}

func signUpDeps(r *recorder, status int, callErr error) SubmitDeps {
	return SubmitDeps{
		Validate: func(_ workflow.State, in workflow.FormInput) string {
			if in.Get(workflow.FieldEmailAddress) == "bad" {
				return "validation.email"
			}
			return ""
		},
		Call: func(_ context.Context, _ workflow.State, _ workflow.FormInput, token string) (Response, error) {
			r.mu.Lock()
			r.calls++
			r.tokens = append(r.tokens, token)
			r.mu.Unlock()
			if callErr != nil {
				return Response{}, callErr
			}
			return Response{Status: status}, nil
		},
		Classify: func(_ workflow.State, resp Response) workflow.Decision {
			switch resp.Status {
			case 200:
				return workflow.Finish(workflow.BucketSuccess, 200, "signup.success.title", "signup.success.body", workflow.AffordanceHome)
			case 400:
				return workflow.Retry(workflow.BucketConflict, "signup.alreadyRegistered")
			default:
				return workflow.Finish(workflow.BucketServerFailure, resp.Status, "error.generic.title", "error.generic.body", workflow.AffordanceRestart)
			}
		},
		ChallengeTimeout: time.Second,
		MetricInc:        r.inc,
		EmitAudit:        r.audit,
		Metrics:          testMetrics,
		Events:           SubmitEvents{Validation: "validation", RateLimited: "rate_limited", Challenge: "challenge", Outcome: "outcome", Aborted: "aborted"},
	}
}

func newRecorder() *recorder {
	return &recorder{metrics: map[int]int{}}
}

func formState() workflow.State {
	return workflow.Start("wf-1", workflow.KindSignUp, "en", time.Now())
}

func validInput() workflow.FormInput {
	return workflow.FormInput{
		workflow.FieldEmailAddress:   "a@b.com",
		workflow.FieldPassword:       "Abcdef1!",
		workflow.FieldRepeatPassword: "Abcdef1!",
	}
}

func TestRunSubmitSuccess(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{tokens: []string{"tok-1"}}

	res, err := RunSubmit(context.Background(), formState(), validInput(), p, signUpDeps(r, 200, nil))
	require.NoError(t, err)

	assert.True(t, res.Called)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, workflow.StepResult, res.State.Step)
	require.NotNil(t, res.State.Outcome)
	assert.Equal(t, workflow.AffordanceHome, res.State.Outcome.Affordance)
	assert.Empty(t, res.State.ChallengeToken)
	assert.False(t, res.State.Submitting)

	assert.Equal(t, 1, r.calls)
	assert.Equal(t, []string{"tok-1"}, r.tokens)
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, 1, r.metrics[testMetrics.OutcomeSuccess])
}

func TestRunSubmitValidationNeverReachesNetwork(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{tokens: []string{"tok-1"}}
	in := validInput()
	in[workflow.FieldEmailAddress] = "bad"

	res, err := RunSubmit(context.Background(), formState(), in, p, signUpDeps(r, 200, nil))
	require.NoError(t, err)

	assert.False(t, res.Called)
	assert.Equal(t, 0, r.calls)
	assert.Equal(t, 0, p.executes)
	require.NotNil(t, res.State.Banner)
	assert.Equal(t, "validation.email", res.State.Banner.Key)
	assert.Equal(t, workflow.StepForm, res.State.Step)
	assert.Equal(t, 1, r.metrics[testMetrics.ValidationRejected])
}

func TestRunSubmitThrottled(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{tokens: []string{"tok-1"}}
	deps := signUpDeps(r, 200, nil)
	deps.Allow = func(context.Context, workflow.State, workflow.FormInput) bool { return false }

	res, err := RunSubmit(context.Background(), formState(), validInput(), p, deps)
	require.NoError(t, err)

	assert.Equal(t, 0, r.calls)
	assert.Equal(t, 0, p.executes)
	require.NotNil(t, res.State.Banner)
	assert.Equal(t, "error.rateLimited", res.State.Banner.Key)
	assert.Equal(t, []string{"rate_limited"}, r.events)
}

func TestRunSubmitConflictResetsToken(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{tokens: []string{"tok-1"}}

	res, err := RunSubmit(context.Background(), formState(), validInput(), p, signUpDeps(r, 400, nil))
	require.NoError(t, err)

	assert.Equal(t, workflow.StepForm, res.State.Step)
	require.NotNil(t, res.State.Banner)
	assert.Equal(t, "signup.alreadyRegistered", res.State.Banner.Key)
	assert.Empty(t, res.State.ChallengeToken)
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, 1, r.metrics[testMetrics.OutcomeConflict])
}

func TestRunSubmitTransportFailureIsServerFailure(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{tokens: []string{"tok-1"}}

	res, err := RunSubmit(context.Background(), formState(), validInput(), p, signUpDeps(r, 0, errors.New("connection refused")))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Status)
	assert.Equal(t, workflow.StepResult, res.State.Step)
	assert.Equal(t, workflow.BucketServerFailure, res.State.Outcome.Bucket)
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, 1, r.metrics[testMetrics.TransportFailure])
}

func TestRunSubmitChallengeRetriesThenSucceeds(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{
		errs:   []error{errors.New("widget glitch"), nil},
		tokens: []string{"", ""},
	}
	p.tokens = append(p.tokens, "tok-3")

	res, err := RunSubmit(context.Background(), formState(), validInput(), p, signUpDeps(r, 200, nil))
	require.NoError(t, err)

	assert.Equal(t, 3, p.executes)
	assert.Equal(t, []string{"tok-3"}, r.tokens)
	assert.Equal(t, workflow.StepResult, res.State.Step)
}

func TestRunSubmitChallengeExhausted(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{}

	res, err := RunSubmit(context.Background(), formState(), validInput(), p, signUpDeps(r, 200, nil))
	require.NoError(t, err)

	assert.Equal(t, 3, p.executes)
	assert.Equal(t, 0, r.calls)
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, workflow.StepForm, res.State.Step)
	assert.False(t, res.State.Submitting)
	assert.False(t, res.State.AwaitingChallenge)
	require.NotNil(t, res.State.Banner)
	assert.Equal(t, ChallengeFailedKey, res.State.Banner.Key)
	assert.Equal(t, 1, r.metrics[testMetrics.ChallengeFailed])
}

func TestRunSubmitChallengeTimeout(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{block: true}
	deps := signUpDeps(r, 200, nil)
	deps.ChallengeTimeout = 20 * time.Millisecond

	res, err := RunSubmit(context.Background(), formState(), validInput(), p, deps)
	require.NoError(t, err)

	assert.Equal(t, 1, p.executes)
	assert.Equal(t, ChallengeFailedKey, res.State.Banner.Key)
}

func TestRunSubmitCallerCancelled(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{block: true}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := RunSubmit(ctx, formState(), validInput(), p, signUpDeps(r, 200, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.State.Submitting)
	assert.Nil(t, res.State.Banner)
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, 0, r.calls)
}

func TestRunSubmitRejectsTerminalAndInFlight(t *testing.T) {
	r := newRecorder()
	deps := signUpDeps(r, 200, nil)
	deps.Errors = SubmitErrors{Terminal: errors.New("terminal"), InFlight: errors.New("in flight"), WrongStep: errors.New("wrong step")}

	done := workflow.Respond(formState(), workflow.Finish(workflow.BucketSuccess, 200, "t", "b", workflow.AffordanceHome), time.Now())
	_, err := RunSubmit(context.Background(), done, validInput(), &countingProvider{}, deps)
	assert.Same(t, deps.Errors.Terminal, err)

	busy := workflow.BeginSubmit(formState(), time.Now())
	_, err = RunSubmit(context.Background(), busy, validInput(), &countingProvider{}, deps)
	assert.Same(t, deps.Errors.InFlight, err)

	check := workflow.Start("wf-2", workflow.KindPasswordReset, "en", time.Now())
	_, err = RunSubmit(context.Background(), check, validInput(), &countingProvider{}, deps)
	assert.Same(t, deps.Errors.WrongStep, err)

	assert.Equal(t, 0, r.calls)
}

func TestRunSubmitCheckpointsProgress(t *testing.T) {
	r := newRecorder()
	var seen []workflow.State
	deps := signUpDeps(r, 200, nil)
	deps.Checkpoint = func(_ context.Context, s workflow.State) { seen = append(seen, s) }

	_, err := RunSubmit(context.Background(), formState(), validInput(), &countingProvider{tokens: []string{"t"}}, deps)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Submitting)
	assert.True(t, seen[0].AwaitingChallenge)
	assert.Equal(t, "t", seen[1].ChallengeToken)
}

func TestRunSubmitNotReady(t *testing.T) {
	_, err := RunSubmit(context.Background(), formState(), validInput(), &countingProvider{}, SubmitDeps{})
	assert.Error(t, err)

	_, err = RunSubmit(context.Background(), formState(), validInput(), nil, signUpDeps(newRecorder(), 200, nil))
	assert.Error(t, err)
}

func TestRunTokenCheckAdvancesToForm(t *testing.T) {
	r := newRecorder()
	p := &countingProvider{tokens: []string{"tok"}}
	deps := SubmitDeps{
		Validate: func(workflow.State, workflow.FormInput) string { return "never" },
		Call: func(_ context.Context, s workflow.State, _ workflow.FormInput, _ string) (Response, error) {
			assert.Equal(t, "link", s.Value(workflow.ContextRequestInfo))
			return Response{Status: 200}, nil
		},
		Classify: func(workflow.State, Response) workflow.Decision {
			return workflow.Advance(map[string]string{workflow.ContextResetToken: "rt"})
		},
		MetricInc: r.inc,
		Metrics:   testMetrics,
	}

	s := workflow.Start("wf", workflow.KindPasswordReset, "en", time.Now())
	s = workflow.WithValue(s, workflow.ContextRequestInfo, "link", time.Now())

	res, err := RunTokenCheck(context.Background(), s, p, deps)
	require.NoError(t, err)

	assert.Equal(t, workflow.StepForm, res.State.Step)
	assert.Equal(t, "rt", res.State.Value(workflow.ContextResetToken))
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, 1, r.metrics[testMetrics.OutcomeSuccess])
}

func TestRunLoad(t *testing.T) {
	r := newRecorder()
	deps := LoadDeps{
		Call: func(context.Context, workflow.State) (Response, error) {
			return Response{Status: 404}, nil
		},
		Classify: func(_ workflow.State, resp Response) workflow.Decision {
			return workflow.Finish(workflow.BucketForStatus(resp.Status), resp.Status, "report.notFound.title", "report.notFound.body", workflow.AffordanceHome)
		},
		MetricInc: r.inc,
		Metrics:   testMetrics,
	}

	s := workflow.Start("wf", workflow.KindReport, "en", time.Now())
	res, err := RunLoad(context.Background(), s, deps)
	require.NoError(t, err)

	assert.Equal(t, workflow.StepResult, res.State.Step)
	assert.Equal(t, 1, r.metrics[testMetrics.OutcomeNotFound])
}

type fakeSessions struct {
	sessions map[string]*session.Session
	deleted  []string
}

func (f *fakeSessions) Get(_ context.Context, id string) (*session.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.sessions, id)
	return nil
}

func TestRunSignOut(t *testing.T) {
	store := &fakeSessions{sessions: map[string]*session.Session{
		"sid": {ID: "sid", MemberID: "m1", AccessToken: "access"},
	}}
	var remoteTokens []string
	deps := SignOutDeps{
		Sessions: store,
		Remote: func(_ context.Context, token string) error {
			remoteTokens = append(remoteTokens, token)
			return errors.New("api down")
		},
		IsNotFound: func(err error) bool { return errors.Is(err, session.ErrNotFound) },
	}

	res := RunSignOut(context.Background(), "sid", deps)
	require.NoError(t, res.Err)
	assert.Error(t, res.RemoteErr)
	assert.Equal(t, "m1", res.MemberID)
	assert.Equal(t, []string{"access"}, remoteTokens)
	assert.Equal(t, []string{"sid"}, store.deleted)

	again := RunSignOut(context.Background(), "sid", deps)
	assert.NoError(t, again.Err)
	assert.Len(t, remoteTokens, 1)
}
