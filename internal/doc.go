// Package internal holds request-scoped helpers shared by the root package
// and the flow implementations: device fingerprint normalization and client
// address extraction. Nothing here performs I/O.
package internal
