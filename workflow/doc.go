// Package workflow models the verification-gated submission workflow shared by
// every Mojito page flow (sign-up, sign-in, password reset, verification, report).
//
// A page instance is a [State] value. The state only changes through the named
// transition functions in this package ([Start], [BeginSubmit], [RejectInput],
// [AwaitChallenge], [ResolveChallenge], [FailChallenge], [Abort], [Throttle],
// [Respond], [ToggleLanguage]); each takes a State and returns a new one and
// never mutates its argument.
//
// # Steps
//
// Every flow starts in [StepForm] (user-initiated pages) or [StepTokenCheck]
// (pages reached through an emailed link) and ends in [StepResult]. Result is
// terminal: callers must refuse further submissions once a state reports
// [State.Terminal].
//
// # What this package must NOT do
//
//   - Perform I/O or hold references to clients, stores, or providers.
//   - Localize text. States carry message keys; rendering happens elsewhere.
package workflow
