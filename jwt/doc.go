// Package jwt verifies the member access tokens returned by the sign-in API,
// with strict algorithm, kid, issuer, audience and expiry checks.
package jwt
