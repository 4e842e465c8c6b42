// Package stores provides the short-lived record stores behind the workflow
// engine: workflow snapshots and their in-flight locks.
//
// # Design
//
// Each snapshot is a versioned record (version byte + JSON) stored with a
// TTL; expiry is how abandoned workflows disappear. The in-flight lock is a
// separate key taken with SET NX PX and released with a compare-and-delete
// script, so only the holder can release it and a crashed holder's lock
// expires on its own. The in-memory store mirrors these semantics for
// single-instance deployments and tests.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for workflow records.
// It does NOT decide transitions, enforce rate limits, or call the remote
// API. Those belong to the flow functions in internal/flows.
//
// # What this package must NOT do
//
//   - Import mojito or any sibling internal package.
//   - Persist form input or challenge tokens.
package stores
