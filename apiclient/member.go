package apiclient

import (
	"context"
	"net/http"
)

// Credentials is the body of sign-up and sign-in.
type Credentials struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
}

// SignInResponse is the 200 body of sign-in.
type SignInResponse struct {
	AccessToken string `json:"accessToken"`
}

// ResetVerification is the 200 body of the reset-link check.
type ResetVerification struct {
	EmailAddress       string `json:"emailAddress"`
	ResetPasswordToken string `json:"resetPasswordToken"`
}

// ResetPassword is the body of the password reset submission.
type ResetPassword struct {
	EmailAddress       string `json:"emailAddress"`
	ResetPasswordToken string `json:"resetPasswordToken"`
	Password           string `json:"password"`
}

// SignUp registers a member.
func (c *Client) SignUp(ctx context.Context, creds Credentials, challengeToken string) (Response, error) {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/member/signup",
		query:  challengeQuery(challengeToken),
		body:   creds,
	})
}

// VerifySignUp confirms the account link identified by requestInfo.
func (c *Client) VerifySignUp(ctx context.Context, requestInfo, challengeToken string) (Response, error) {
	q := challengeQuery(challengeToken)
	q.Set("requestInfo", requestInfo)
	return c.do(ctx, call{method: http.MethodGet, path: "/member/signup/verify", query: q})
}

// VerifyEmail confirms an email-change link identified by requestInfo.
func (c *Client) VerifyEmail(ctx context.Context, requestInfo, challengeToken string) (Response, error) {
	q := challengeQuery(challengeToken)
	q.Set("requestInfo", requestInfo)
	return c.do(ctx, call{method: http.MethodGet, path: "/member/email/verify", query: q})
}

// SignIn exchanges credentials for an access token.
func (c *Client) SignIn(ctx context.Context, creds Credentials, challengeToken string) (Response, error) {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/member/signin",
		query:  challengeQuery(challengeToken),
		body:   creds,
	})
}

// SignOut invalidates accessToken on the server.
func (c *Client) SignOut(ctx context.Context, accessToken string) (Response, error) {
	return c.do(ctx, call{method: http.MethodPost, path: "/member/signout", bearer: accessToken})
}

// RequestPasswordReset asks the server to mail a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, emailAddress, challengeToken string) (Response, error) {
	q := challengeQuery(challengeToken)
	q.Set("emailAddress", emailAddress)
	return c.do(ctx, call{method: http.MethodPost, path: "/member/resetpassword/request", query: q})
}

// VerifyPasswordReset checks a reset link and returns the reset token on 200.
func (c *Client) VerifyPasswordReset(ctx context.Context, requestInfo, challengeToken string) (Response, error) {
	q := challengeQuery(challengeToken)
	q.Set("requestInfo", requestInfo)
	return c.do(ctx, call{method: http.MethodGet, path: "/member/resetpassword/verify", query: q})
}

// ResetPassword sets a new password.
func (c *Client) ResetPassword(ctx context.Context, body ResetPassword, challengeToken string) (Response, error) {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/member/resetpassword",
		query:  challengeQuery(challengeToken),
		body:   body,
	})
}
