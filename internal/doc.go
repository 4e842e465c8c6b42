// Package internal groups the private building blocks of the engine.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure orchestrators for one submission, token check, lookup or sign-out
//   - limiters: the per-kind submission limiter
//   - logging: zap logger construction for the binaries
//   - rate: fixed-window counters over Redis or process memory
//   - security: configuration posture report
//   - stores: workflow snapshots and in-flight locks
//
// # What this package must NOT do
//
//   - Export types that appear in the public mojito API.
//   - Be imported by any package outside the mojito module.
package internal
