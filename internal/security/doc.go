// Package security turns an engine configuration into a posture report with
// warnings for deployments that are unsafe beyond a single development box.
//
// # What this package must NOT do
//
//   - Reject configurations. Config.Validate does that.
//   - Read secrets. It only sees whether key material is present.
package security
