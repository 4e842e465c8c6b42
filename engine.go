package mojito

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/mojito/apiclient"
	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/internal/audit"
	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/internal/limiters"
	"github.com/MrEthical07/mojito/internal/stores"
	"github.com/MrEthical07/mojito/locale"
	"github.com/MrEthical07/mojito/session"
	"github.com/MrEthical07/mojito/validate"
	"github.com/MrEthical07/mojito/workflow"
)

type workflowStore interface {
	Create(ctx context.Context, state workflow.State, ttl time.Duration) error
	Save(ctx context.Context, state workflow.State, ttl time.Duration) error
	Load(ctx context.Context, id string) (workflow.State, error)
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, id, token string) error
}

// Engine runs the page workflows. It is built by Builder and safe for
// concurrent use; each workflow instance is serialized by its store lock.
type Engine struct {
	config    Config
	logger    *zap.Logger
	api       *apiclient.Client
	catalog   *locale.Catalog
	policy    validate.Policy
	workflows workflowStore
	limiter   *limiters.SubmissionLimiter
	sessions  *session.Manager
	audit     *audit.Dispatcher
	metrics   *Metrics
	flow      flows.Service
	now       func() time.Time
	newID     func() string
}

// Close flushes pending audit events. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.workflows != nil && e.flow.Initialized()
}

// Languages returns the language toggle order.
func (e *Engine) Languages() []string {
	if e == nil || e.catalog == nil {
		return nil
	}
	return e.catalog.Languages()
}

// MatchLanguage picks the display language for an Accept-Language header.
func (e *Engine) MatchLanguage(acceptLanguage string) string {
	if e == nil || e.catalog == nil {
		return ""
	}
	return e.catalog.Match(acceptLanguage)
}

// Start opens a page workflow. Link-driven flows start in the token check
// step; report first loads the summary of the reported content and ends
// immediately when the caller is not signed in.
func (e *Engine) Start(ctx context.Context, kind workflow.Kind, opts StartOptions) (workflow.State, error) {
	if !e.ready() {
		return workflow.State{}, ErrEngineNotReady
	}
	if !kind.Valid() {
		return workflow.State{}, ErrUnknownKind
	}

	requestInfo := strings.TrimSpace(opts.RequestInfo)
	affairID := strings.TrimSpace(opts.AffairID)
	if kind.LinkDriven() && requestInfo == "" {
		return workflow.State{}, ErrMissingRequestInfo
	}
	if kind == workflow.KindReport && affairID == "" {
		return workflow.State{}, ErrMissingAffairID
	}

	now := e.now()
	st := workflow.Start(e.newID(), kind, e.catalog.Resolve(opts.Language), now)
	if kind.LinkDriven() {
		st = workflow.WithValue(st, workflow.ContextRequestInfo, requestInfo, now)
	}

	if kind == workflow.KindReport {
		st = workflow.WithValue(st, workflow.ContextAffairID, affairID, now)

		_, err := e.Session(ctx, opts.SessionID)
		switch {
		case err == nil:
			st = workflow.WithValue(st, workflow.ContextSessionID, opts.SessionID, now)
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionInvalid):
			st = workflow.Respond(st, signInRequired(), now)
		default:
			return workflow.State{}, err
		}
	}

	e.metricInc(MetricWorkflowStarted)

	if !st.Terminal() && e.flow.Loads(kind) {
		res, err := e.flow.Load(ctx, st)
		if err != nil {
			return workflow.State{}, err
		}
		st = res.State
	}

	if err := e.workflows.Create(ctx, st, e.config.Store.WorkflowTTL); err != nil {
		e.logger.Error("workflow create failed", zap.String("workflow_id", st.ID), zap.Error(err))
		return workflow.State{}, mapStoreError(err)
	}

	e.emitAudit(ctx, auditEventWorkflowStarted, st, true, nil, nil)
	return st, nil
}

// State returns the current snapshot of a workflow.
func (e *Engine) State(ctx context.Context, id string) (workflow.State, error) {
	if !e.ready() {
		return workflow.State{}, ErrEngineNotReady
	}
	return e.load(ctx, id)
}

// Submit validates input, acquires a challenge token from provider, and makes
// exactly one remote call. User-facing failures come back as a state with a
// banner or outcome and a nil error.
func (e *Engine) Submit(ctx context.Context, id string, input workflow.FormInput, provider challenge.Provider) (workflow.State, error) {
	return e.runLocked(ctx, id, func(st workflow.State) (flows.SubmitResult, error) {
		return e.flow.Submit(ctx, st, input, provider)
	})
}

// CheckToken runs the automatic link verification of a link-driven flow.
func (e *Engine) CheckToken(ctx context.Context, id string, provider challenge.Provider) (workflow.State, error) {
	return e.runLocked(ctx, id, func(st workflow.State) (flows.SubmitResult, error) {
		return e.flow.TokenCheck(ctx, st, provider)
	})
}

// ToggleLanguage switches the workflow to the next language in the toggle
// order. It is allowed in every step.
func (e *Engine) ToggleLanguage(ctx context.Context, id string) (workflow.State, error) {
	return e.runLocked(ctx, id, func(st workflow.State) (flows.SubmitResult, error) {
		next := workflow.ToggleLanguage(st, e.catalog.Languages(), e.now())
		e.emitAudit(ctx, auditEventLanguageToggled, next, true, nil, func() map[string]string {
			return map[string]string{"from": st.Language, "to": next.Language}
		})
		return flows.SubmitResult{State: next}, nil
	})
}

// Abandon discards a workflow when the user navigates away. Unknown ids are
// not an error. A pending submission is not cancelled remotely, but its
// result is never stored and the workflow stays gone.
func (e *Engine) Abandon(ctx context.Context, id string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.workflows.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	e.emitAudit(ctx, auditEventWorkflowAbandoned, workflow.State{ID: id}, true, nil, nil)
	return nil
}

// Ping reports whether the workflow and session stores are reachable. The
// memory backend always is.
func (e *Engine) Ping(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if p, ok := e.workflows.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return errors.Join(ErrStoreUnavailable, err)
		}
	}
	if err := e.sessions.Ping(ctx); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Sweep drops expired workflows held in process memory and returns how many
// were removed. It does nothing for the redis backend, where keys expire on
// their own.
func (e *Engine) Sweep() int {
	if e == nil {
		return 0
	}
	if s, ok := e.workflows.(interface{ Sweep() int }); ok {
		return s.Sweep()
	}
	return 0
}

// runLocked holds the workflow lock for the duration of run and persists the
// state it returns, including the aborted state of a cancelled attempt.
func (e *Engine) runLocked(ctx context.Context, id string, run func(workflow.State) (flows.SubmitResult, error)) (workflow.State, error) {
	if !e.ready() {
		return workflow.State{}, ErrEngineNotReady
	}

	token, err := e.workflows.Lock(ctx, id, e.config.Store.LockTTL)
	if err != nil {
		if errors.Is(err, stores.ErrWorkflowLocked) {
			e.metricInc(MetricInFlightRejected)
			return workflow.State{}, ErrSubmissionInFlight
		}
		return workflow.State{}, mapStoreError(err)
	}
	detached := context.WithoutCancel(ctx)
	defer func() {
		if err := e.workflows.Unlock(detached, id, token); err != nil {
			e.logger.Warn("workflow unlock failed", zap.String("workflow_id", id), zap.Error(err))
		}
	}()

	st, err := e.load(ctx, id)
	if err != nil {
		return workflow.State{}, err
	}
	// Holding the lock means nothing is in flight; a set flag was left
	// behind by a holder that died mid-attempt.
	if st.Submitting || st.AwaitingChallenge {
		st = workflow.Abort(st, e.now())
	}

	res, runErr := run(st)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		if errors.Is(runErr, ErrSubmissionInFlight) {
			e.metricInc(MetricInFlightRejected)
		}
		return st, runErr
	}

	if err := e.save(detached, res.State); err != nil {
		return res.State, err
	}
	return res.State, runErr
}

func (e *Engine) load(ctx context.Context, id string) (workflow.State, error) {
	if strings.TrimSpace(id) == "" {
		return workflow.State{}, ErrWorkflowNotFound
	}
	st, err := e.workflows.Load(ctx, id)
	if err != nil {
		return workflow.State{}, mapStoreError(err)
	}
	return st, nil
}

func (e *Engine) save(ctx context.Context, st workflow.State) error {
	err := e.workflows.Save(ctx, st, e.config.Store.WorkflowTTL)
	if errors.Is(err, stores.ErrWorkflowNotFound) {
		e.logger.Debug("workflow gone before save", zap.String("workflow_id", st.ID))
		return ErrWorkflowNotFound
	}
	if err != nil {
		e.logger.Error("workflow save failed", zap.String("workflow_id", st.ID), zap.Error(err))
		return mapStoreError(err)
	}
	return nil
}

// checkpoint publishes an intermediate state so readers see the progress
// indicator. Failures only lose that visibility.
func (e *Engine) checkpoint(ctx context.Context, st workflow.State) {
	err := e.workflows.Save(context.WithoutCancel(ctx), st, e.config.Store.WorkflowTTL)
	if errors.Is(err, stores.ErrWorkflowNotFound) {
		e.logger.Debug("workflow gone before checkpoint", zap.String("workflow_id", st.ID))
		return
	}
	if err != nil {
		e.logger.Warn("workflow checkpoint failed", zap.String("workflow_id", st.ID), zap.Error(err))
	}
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stores.ErrWorkflowNotFound):
		return ErrWorkflowNotFound
	case errors.Is(err, stores.ErrWorkflowLocked):
		return ErrSubmissionInFlight
	case errors.Is(err, stores.ErrWorkflowCorrupt):
		return ErrWorkflowNotFound
	default:
		return errors.Join(ErrStoreUnavailable, err)
	}
}
