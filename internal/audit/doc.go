// Package audit provides structured audit events for session lifecycle
// decisions: sign-in, sign-out, refresh outcomes, and anomaly rejections.
//
// # Architecture boundaries
//
// This package owns the event model, sink implementations, and the async
// dispatcher. It decides nothing about session state; the root package emits
// events after the fact.
//
// # What this package must NOT do
//
//   - Block request handling: dispatch is buffered and can be configured to
//     drop on overflow.
//   - Import sessiongate or any sibling package.
package audit
