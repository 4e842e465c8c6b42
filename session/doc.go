// Package session stores signed-in members for the web tier.
//
// A [Manager] verifies the access token returned by the sign-in API, builds a
// typed [Session] from its claims and persists it under an opaque id that the
// browser holds in a cookie. Backends: Redis ([Store]) and in-process
// ([MemoryStore]).
//
// # Binary encoding
//
// Sessions are stored as a compact binary blob (schema v1–v2) with forward
// migration on read. The encoder is append-only: new versions add fields but
// never reinterpret old ones.
//
// # What this package must NOT do
//
//   - Import mojito (no upward imports).
//   - Decide which pages require a session.
//   - Expose the access token to rendering code.
package session
