// Package session defines the session token and record model shared by the
// envelope codec, the refresh flow, and store implementations.
//
// # Architecture boundaries
//
// This package owns the data model and the [Store] contract. It performs no
// I/O and no cryptography. Envelope encoding lives in the envelope package;
// the reference Redis store lives in the redistore package.
//
// # What this package must NOT do
//
//   - Access Redis or perform any I/O.
//   - Import sessiongate, envelope, or redistore (no import cycles).
//   - Implement refresh policy; that is the internal flows package.
package session
