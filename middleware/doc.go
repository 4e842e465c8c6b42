// Package middleware holds the HTTP adapters the JSON binding mounts in
// front of the engine.
//
//   - [RequireSession] resolves the session cookie and rejects with 401.
//   - [ClientIP] stores the caller address for throttling and audit.
//   - [AccessLog] writes one zap line per request.
//
// # What this package must NOT do
//
//   - Parse access tokens. Session lookups go through the Engine.
//   - Touch workflow state.
package middleware
