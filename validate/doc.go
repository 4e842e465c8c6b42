// Package validate holds the pure client-side checks that run before any
// network submission: email address format, password policy, password
// confirmation, and report details.
//
// Every check returns one of the sentinel errors in this package so callers
// can map failures onto localized messages with errors.Is.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Normalize input. Values are checked exactly as typed.
package validate
