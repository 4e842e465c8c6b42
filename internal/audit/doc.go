// Package audit implements async event dispatching for workflow transitions
// and session changes.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap logger, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured record of one workflow transition, keyed by workflow id.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit. The Engine and flow functions do.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import mojito or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
