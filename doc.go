// Package mojito runs the page workflows of the Mojito community front-end:
// sign-up, sign-in, sign-out, password reset, account and email verification,
// content reporting, and the static informational pages.
//
// Every form submission follows the same verification-gated sequence: local
// validation, submission throttling, challenge acquisition, exactly one call
// to the remote API, and classification of the response into a localized
// result. The [Engine] built by [Builder] owns that sequence; the state of
// each page instance is a [workflow.State] snapshot kept in a store so that
// any replica can serve the next request.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// mojito is the public surface. It exposes [Engine], [Builder], [Config], and
// value types ([View], [Page], [MetricsSnapshot]). Flow orchestration,
// workflow persistence, throttling, and audit dispatch live under internal/
// and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Keep a challenge token after the remote call it was acquired for.
//   - Report user-facing failures as Go errors. Those are banners and outcomes.
//   - Import any sub-package that re-imports mojito (no import cycles).
package mojito
