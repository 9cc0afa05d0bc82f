package session

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by [Store.Load] when no record exists for the
// presented token's session ID.
var ErrRecordNotFound = errors.New("session record not found")

// ErrGenerationConflict is returned by [Store.Update] when the stored
// generation no longer matches the expected generation. It is the optimistic
// concurrency signal of the store contract.
var ErrGenerationConflict = errors.New("session generation conflict")

// ErrStoreUnavailable wraps backend transport failures so callers can treat
// them uniformly as "session unavailable" without inspecting driver errors.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Token is the client-visible session state carried inside the cookie
// envelope. It is minted by a [Store] and never trusted on its own: the
// authoritative generation lives in the server-side [Record].
//
// Token instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Token struct {
	SessionID    string
	UserID       string
	RefreshedUTC time.Time
	RefreshAfter time.Duration
	ValidFor     time.Duration
	Generation   uint32
	Persistent   bool
}

// Stale reports whether the token is due for refresh at the given instant.
// A stale token is still usable; it only triggers the refresh protocol.
func (t *Token) Stale(now time.Time) bool {
	return now.After(t.RefreshedUTC.Add(t.RefreshAfter))
}

// Expired reports whether the token is past the point where refresh is
// possible at all.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.RefreshedUTC.Add(t.ValidFor))
}

// Record is the server-side session record. It mirrors the token's refresh
// metadata and carries the authoritative generation plus the device and IP
// observed at the last refresh. Records are never sent to the client.
type Record struct {
	SessionID    string
	UserID       string
	Device       string
	IPAddress    string
	RefreshedUTC time.Time
	RefreshAfter time.Duration
	ValidFor     time.Duration
	Generation   uint32
	Persistent   bool
}

// Expired reports whether the record is past its refresh horizon.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.RefreshedUTC.Add(r.ValidFor))
}

// SignInInfo is the immutable value produced at sign-in time and passed to
// the collaborator that mints the first token/record pair. It has no
// lifecycle of its own afterward.
type SignInInfo struct {
	Device        string
	IPAddress     string
	SessionExpiry time.Duration
	Persistent    bool
}

// Store is the contract the session handler uses to reach the server-side
// session store. Implementations must serialize the load/update sequence for
// a single session ID, or honor the expectedGeneration check in [Store.Update]
// with an atomic compare-and-update so two racing refreshes cannot both
// advance the generation.
//
//	Docs: docs/store.md
type Store interface {
	// Load resolves the record for the token's session ID.
	// Returns ErrRecordNotFound when no record exists.
	Load(ctx context.Context, token *Token) (*Record, error)

	// Update persists the record if and only if the stored generation still
	// equals expectedGeneration. Returns ErrGenerationConflict otherwise.
	Update(ctx context.Context, rec *Record, expectedGeneration uint32) error

	// Invalidate removes the record for the token's session ID. Removing an
	// absent record is not an error.
	Invalidate(ctx context.Context, token *Token) error

	// Refresh mints the concrete token for the caller from current store
	// state. It must not mutate the record.
	Refresh(ctx context.Context, prev *Token, rec *Record) (*Token, error)
}
