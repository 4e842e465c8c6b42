package mojito

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MrEthical07/mojito/apiclient"
	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/session"
	"github.com/MrEthical07/mojito/validate"
	"github.com/MrEthical07/mojito/workflow"
)

func validateSignIn(_ workflow.State, input workflow.FormInput) string {
	if err := validate.Email(input.Get(workflow.FieldEmailAddress)); err != nil {
		return validationKey(err)
	}
	return validationKey(validate.Required(input.Get(workflow.FieldPassword)))
}

// callSignIn turns a 200 response into a stored session. The access token
// never leaves this function: the response body is dropped and only the
// session id is passed on. A token that fails verification leaves the
// response without a session id, which classifies as a server failure.
func (e *Engine) callSignIn(ctx context.Context, st workflow.State, input workflow.FormInput, challengeToken string) (flows.Response, error) {
	resp, err := e.api.SignIn(ctx, apiclient.Credentials{
		EmailAddress: input.Get(workflow.FieldEmailAddress),
		Password:     input.Get(workflow.FieldPassword),
	}, challengeToken)
	if err != nil {
		return flows.Response{}, err
	}
	out := flows.Response{Status: resp.StatusCode}
	if !resp.OK() {
		return out, nil
	}

	var body apiclient.SignInResponse
	if err := resp.Decode(&body); err != nil || body.AccessToken == "" {
		e.logger.Warn("sign-in response has no access token", zap.String("workflow_id", st.ID), zap.Error(err))
		return out, nil
	}
	sess, err := e.sessions.Create(ctx, body.AccessToken)
	if err != nil {
		e.logger.Warn("sign-in session not created", zap.String("workflow_id", st.ID), zap.Error(err))
		return out, nil
	}
	e.metricInc(MetricSessionCreated)
	out.Values = map[string]string{workflow.ContextSessionID: sess.ID}
	return out, nil
}

func classifySignIn(_ workflow.State, resp flows.Response) workflow.Decision {
	switch resp.Status {
	case 200:
		id := resp.Values[workflow.ContextSessionID]
		if id == "" {
			return genericFailure(resp.Status)
		}
		d := finish(workflow.BucketSuccess, 200, "signin.success", workflow.AffordanceHome)
		d.Context = map[string]string{workflow.ContextSessionID: id}
		return d
	case 400, 401, 404:
		return workflow.Retry(workflow.BucketConflict, "signin.invalidCredentials")
	case 403:
		return workflow.Retry(workflow.BucketConflict, "signin.unverified")
	default:
		return genericFailure(resp.Status)
	}
}

// Session returns the live session for sessionID.
func (e *Engine) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return sess, nil
}

// SignOut ends a session. The remote sign-out is best effort; the local
// session is removed either way. Unknown sessions are already signed out.
func (e *Engine) SignOut(ctx context.Context, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return nil
	}
	res := e.flow.SignOut(ctx, sessionID)
	if res.RemoteErr != nil {
		e.logger.Warn("remote sign-out failed", zap.String("member_id", res.MemberID), zap.Error(res.RemoteErr))
	}
	return mapSessionError(res.Err)
}

func mapSessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrSessionCorrupt), errors.Is(err, session.ErrInvalidToken):
		return ErrSessionInvalid
	default:
		return errors.Join(ErrStoreUnavailable, err)
	}
}
