// Package redistore is the reference Redis implementation of the session
// store contract.
//
// Records are stored as compact binary blobs under a configurable key prefix,
// with the record TTL tracking the session's refresh horizon. The generation
// compare-and-update required by the refresh protocol runs as a Lua script,
// so two racing refreshes can never both advance the generation.
//
// # Architecture boundaries
//
// This package owns persistence, expiration, and the atomic generation
// update. Refresh policy (grace windows, device matching) lives in the
// internal flows package and never leaks in here.
package redistore
