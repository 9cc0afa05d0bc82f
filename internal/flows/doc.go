// Package flows implements the session refresh protocol as a dependency-struct
// function, keeping the root package free of store-specific knowledge. The
// root gate builds a [RefreshDeps] once per request and delegates to
// [RunRefresh]; the result carries a failure kind for root-level error and
// metric mapping.
package flows
