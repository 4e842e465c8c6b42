// Package httpapi binds the engine to JSON endpoints over gorilla/mux. The
// browser renders the returned views; every handler is a thin translation of
// one Engine call.
//
// # What this package must NOT do
//
//   - Classify remote responses or change workflow state on its own.
//   - Persist the challenge token beyond one request.
package httpapi
