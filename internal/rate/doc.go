// Package rate counts submissions per key inside a fixed window.
//
// The first hit on a key opens its window; later hits only increment. Redis
// uses INCR plus EXPIRE on the first hit, and the in-process counter keeps
// the same contract for the memory backend and tests.
//
// # What this package must NOT do
//
//   - Decide whether a count means "deny". internal/limiters owns thresholds.
//   - Be imported outside the mojito module.
package rate
