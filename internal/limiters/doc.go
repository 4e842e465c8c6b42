// Package limiters throttles verification-gated submissions.
//
// [SubmissionLimiter] keeps two windows per workflow kind: one keyed by the
// submitted identifier and one keyed by client IP. A nil limiter allows
// everything.
//
// # What this package must NOT do
//
//   - Import mojito or any sibling internal package except internal/rate.
//   - Touch workflow state. The engine maps a denial to a banner.
package limiters
