// Package sessiongate issues, verifies, and refreshes cookie-carried session
// tokens with a generation-based, race-tolerant refresh protocol.
//
// The package is designed for concurrent server workloads: a [Gate] built via
// [Builder.Build] is safe to share across goroutines; the per-request
// [Handler] returned by [Gate.Context] is single-use.
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Gate], [Builder], [Config],
// [Handler], and value types (Token, Record, SignInInfo). Flow orchestration,
// audit dispatch, and metric counters live under internal/ and are never
// exported. The envelope, origin, signer, and session sub-packages are public
// building blocks usable on their own.
//
// # What this package must NOT do
//
//   - Verify credentials or run multi-factor flows; sign-in minting is the
//     caller's collaborator.
//   - Expose store backends or envelope key material in its public API.
//   - Surface cryptographic decode failures distinguishably from an absent
//     cookie.
//
// # Performance contract
//
// Reading a fresh token is the hot path: one cookie parse and one envelope
// decode, no store round-trip. A refresh is allowed one store load plus one
// compare-and-update write.
package sessiongate
