// Package flows contains pure-function orchestrators for every Engine operation.
//
// RunSubmit and RunTokenCheck drive one verification-gated attempt: local
// validation, rate limit, challenge acquisition, exactly one remote call,
// response classification. RunLoad performs an unchallenged lookup when a
// page opens and RunSignOut ends a session. Each accepts a typed dependency
// struct and returns the next workflow state.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the API client, challenge provider,
// submission limiter, audit dispatcher, and metrics. They do NOT own any of
// these resources. Ownership stays with the Engine, which also holds the
// per-workflow lock while a flow runs.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import mojito (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
//   - Keep a challenge token after the remote call returns.
package flows
