package mojito

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/mojito/apiclient"
	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/validate"
	"github.com/MrEthical07/mojito/workflow"
)

/*
====================================
RESET REQUEST
====================================
*/

func validateResetRequest(_ workflow.State, input workflow.FormInput) string {
	return validationKey(validate.Email(input.Get(workflow.FieldEmailAddress)))
}

func (e *Engine) callResetRequest(ctx context.Context, _ workflow.State, input workflow.FormInput, challengeToken string) (flows.Response, error) {
	return fromAPI(e.api.RequestPasswordReset(ctx, input.Get(workflow.FieldEmailAddress), challengeToken))
}

func classifyResetRequest(_ workflow.State, resp flows.Response) workflow.Decision {
	switch resp.Status {
	case 200:
		return finish(workflow.BucketSuccess, 200, "resetrequest.sent", workflow.AffordanceHome)
	case 404:
		return workflow.Retry(workflow.BucketConflict, "resetrequest.memberNotFound")
	default:
		return genericFailure(resp.Status)
	}
}

/*
====================================
RESET PASSWORD
====================================
*/

// validateResetPassword checks that both entries match before the policy.
func (e *Engine) validateResetPassword(_ workflow.State, input workflow.FormInput) string {
	return validationKey(validate.NewPassword(e.policy, input.Get(workflow.FieldPassword), input.Get(workflow.FieldRepeatPassword)))
}

// callResetPassword serves both steps of the reset flow: the link check
// during StepTokenCheck and the new password submission afterwards.
func (e *Engine) callResetPassword(ctx context.Context, st workflow.State, input workflow.FormInput, challengeToken string) (flows.Response, error) {
	if st.Step == workflow.StepTokenCheck {
		resp, err := e.api.VerifyPasswordReset(ctx, st.Value(workflow.ContextRequestInfo), challengeToken)
		if err != nil {
			return flows.Response{}, err
		}
		out := flows.Response{Status: resp.StatusCode}
		if !resp.OK() {
			return out, nil
		}
		var body apiclient.ResetVerification
		if err := resp.Decode(&body); err != nil || body.EmailAddress == "" || body.ResetPasswordToken == "" {
			e.logger.Warn("reset verification response incomplete", zap.String("workflow_id", st.ID), zap.Error(err))
			return out, nil
		}
		out.Values = map[string]string{
			workflow.ContextEmailAddress: body.EmailAddress,
			workflow.ContextResetToken:   body.ResetPasswordToken,
		}
		return out, nil
	}

	return fromAPI(e.api.ResetPassword(ctx, apiclient.ResetPassword{
		EmailAddress:       st.Value(workflow.ContextEmailAddress),
		ResetPasswordToken: st.Value(workflow.ContextResetToken),
		Password:           input.Get(workflow.FieldPassword),
	}, challengeToken))
}

func classifyResetPassword(st workflow.State, resp flows.Response) workflow.Decision {
	if st.Step == workflow.StepTokenCheck {
		switch resp.Status {
		case 200:
			if resp.Values[workflow.ContextResetToken] == "" {
				return genericFailure(resp.Status)
			}
			return workflow.Advance(resp.Values)
		case 400, 403, 404:
			return finish(workflow.BucketNotFound, resp.Status, "reset.expired", workflow.AffordanceRestart)
		default:
			return genericFailure(resp.Status)
		}
	}

	switch resp.Status {
	case 200:
		return finish(workflow.BucketSuccess, 200, "reset.success", workflow.AffordanceSignIn)
	case 403, 404:
		return finish(workflow.BucketNotFound, resp.Status, "reset.expired", workflow.AffordanceRestart)
	default:
		return genericFailure(resp.Status)
	}
}
