package mojito

import (
	"context"
	"errors"

	"github.com/MrEthical07/mojito/apiclient"
	"github.com/MrEthical07/mojito/internal/flows"
	"github.com/MrEthical07/mojito/validate"
	"github.com/MrEthical07/mojito/workflow"
)

// validateSignUp checks the email, then that both passwords match, then the
// password policy.
func (e *Engine) validateSignUp(_ workflow.State, input workflow.FormInput) string {
	if err := validate.Email(input.Get(workflow.FieldEmailAddress)); err != nil {
		return validationKey(err)
	}
	if err := validate.NewPassword(e.policy, input.Get(workflow.FieldPassword), input.Get(workflow.FieldRepeatPassword)); err != nil {
		return validationKey(err)
	}
	return ""
}

func (e *Engine) callSignUp(ctx context.Context, _ workflow.State, input workflow.FormInput, challengeToken string) (flows.Response, error) {
	return fromAPI(e.api.SignUp(ctx, apiclient.Credentials{
		EmailAddress: input.Get(workflow.FieldEmailAddress),
		Password:     input.Get(workflow.FieldPassword),
	}, challengeToken))
}

func classifySignUp(_ workflow.State, resp flows.Response) workflow.Decision {
	switch resp.Status {
	case 200:
		return finish(workflow.BucketSuccess, 200, "signup.success", workflow.AffordanceHome)
	case 400:
		return workflow.Retry(workflow.BucketConflict, "signup.alreadyRegistered")
	default:
		return genericFailure(resp.Status)
	}
}

func passwordPolicy(cfg PasswordConfig) validate.Policy {
	return validate.Policy{
		MinLength:      cfg.MinLength,
		RequireLower:   cfg.RequireLower,
		RequireUpper:   cfg.RequireUpper,
		RequireDigit:   cfg.RequireDigit,
		RequireSpecial: cfg.RequireSpecial,
	}
}

// validationKey maps a validator error to its banner key.
func validationKey(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, validate.ErrEmailFormat):
		return "validation.email"
	case errors.Is(err, validate.ErrPasswordMismatch):
		return "validation.passwordMismatch"
	case errors.Is(err, validate.ErrPasswordPolicy):
		return "validation.passwordPolicy"
	case errors.Is(err, validate.ErrPasswordRequired):
		return "validation.passwordRequired"
	case errors.Is(err, validate.ErrReportCategory):
		return "validation.reportCategory"
	case errors.Is(err, validate.ErrReportDetails):
		return "validation.reportDetails"
	default:
		return "error.generic.body"
	}
}
