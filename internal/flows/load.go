package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/mojito/workflow"
)

// LoadDeps captures the dependencies of a lookup that runs when a page opens
// and needs no challenge, such as the summary of reported content.
type LoadDeps struct {
	Call     func(context.Context, workflow.State) (Response, error)
	Classify func(workflow.State, Response) workflow.Decision

	Now       func() time.Time
	MetricInc func(int)
	EmitAudit func(context.Context, string, workflow.State, bool, error, func() map[string]string)

	Metrics SubmitMetrics
	Events  SubmitEvents
	Errors  SubmitErrors
}

// RunLoad performs the lookup for a freshly started form and applies the
// classified response. An EffectAdvance decision keeps the form and stores
// the returned values; EffectFinish ends the workflow.
func RunLoad(ctx context.Context, s workflow.State, deps LoadDeps) (SubmitResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, workflow.State, bool, error, func() map[string]string) {}
	}

	if deps.Call == nil || deps.Classify == nil {
		return SubmitResult{State: s}, deps.Errors.EngineNotReady
	}
	if s.Terminal() {
		return SubmitResult{State: s}, deps.Errors.Terminal
	}

	resp, err := deps.Call(ctx, s)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return SubmitResult{State: s}, ctxErr
		}
		deps.MetricInc(deps.Metrics.TransportFailure)
		resp = Response{Status: 0}
	}

	decision := deps.Classify(s, resp)
	next := workflow.Respond(s, decision, deps.Now())
	deps.MetricInc(bucketMetric(decision.Bucket, deps.Metrics))
	deps.EmitAudit(ctx, deps.Events.Outcome, next, decision.Bucket == workflow.BucketSuccess, err, func() map[string]string {
		return map[string]string{
			"bucket": string(decision.Bucket),
			"status": statusText(resp.Status),
			"phase":  "load",
		}
	})

	return SubmitResult{State: next, Status: resp.Status, Called: true}, nil
}
