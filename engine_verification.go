package mojito

import (
	"context"

	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/workflow"
)

func (e *Engine) callAccountVerification(ctx context.Context, st workflow.State, _ workflow.FormInput, challengeToken string) (flows.Response, error) {
	return fromAPI(e.api.VerifySignUp(ctx, st.Value(workflow.ContextRequestInfo), challengeToken))
}

func (e *Engine) callEmailVerification(ctx context.Context, st workflow.State, _ workflow.FormInput, challengeToken string) (flows.Response, error) {
	return fromAPI(e.api.VerifyEmail(ctx, st.Value(workflow.ContextRequestInfo), challengeToken))
}

// classifyVerification ends a verification flow on its first response. The
// message keys live under prefix ("verify" or "emailverify").
func classifyVerification(prefix string, onSuccess workflow.Affordance) func(workflow.State, flows.Response) workflow.Decision {
	return func(_ workflow.State, resp flows.Response) workflow.Decision {
		switch resp.Status {
		case 200:
			return finish(workflow.BucketSuccess, 200, prefix+".success", onSuccess)
		case 400:
			return finish(workflow.BucketConflict, 400, prefix+".failed", workflow.AffordanceHome)
		case 403, 404:
			return finish(workflow.BucketNotFound, resp.Status, prefix+".expired", workflow.AffordanceHome)
		default:
			return finish(workflow.BucketServerFailure, resp.Status, prefix+".failed", workflow.AffordanceHome)
		}
	}
}
