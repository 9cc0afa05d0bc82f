package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/sessiongate/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureSessionNotFound

	// RefreshFailureTokenExpired is the presented token being past its
	// refresh horizon. The store is never loaded on this path, so nothing
	// was invalidated.
	RefreshFailureTokenExpired

	// RefreshFailureExpired is the server-side record being past its
	// refresh horizon; the dead record is invalidated.
	RefreshFailureExpired

	RefreshFailureReplay
	RefreshFailureDeviceMismatch
	RefreshFailureIPMismatch
	RefreshFailureStore
	RefreshFailureMint
)

// Invalidated reports whether the failure caused the server-side record to be
// removed (anomaly handling), as opposed to a plain rejection.
func (k RefreshFailureKind) Invalidated() bool {
	switch k {
	case RefreshFailureExpired, RefreshFailureReplay, RefreshFailureDeviceMismatch, RefreshFailureIPMismatch:
		return true
	}
	return false
}

// RefreshResult carries either the minted token or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Token   *session.Token
	Record  *session.Record

	// GraceAccepted is set when a one-generation-behind token was honored
	// inside the grace window instead of advancing the store.
	GraceAccepted bool
}

// RefreshDeps captures refresh flow dependencies and policy knobs.
type RefreshDeps struct {
	Now func() time.Time

	// Grace bounds the multi-refresh window: in-step refreshes inside it do
	// not advance the generation, and one-behind tokens inside it are still
	// honored when the device and IP checks pass.
	Grace       time.Duration
	MatchDevice bool
	MatchIP     bool

	// Device and IPAddress describe the caller of this refresh.
	Device    string
	IPAddress string

	// RefreshAfter, PersistentExpiry, and TemporaryExpiry restamp the record
	// on a successful in-step refresh.
	RefreshAfter     time.Duration
	PersistentExpiry time.Duration
	TemporaryExpiry  time.Duration

	Store session.Store
}

// RunRefresh executes the generation-based refresh protocol for one presented
// token. All store anomalies (generation skew outside the rules, device or IP
// mismatch on a one-behind token) invalidate the record before failing.
func RunRefresh(ctx context.Context, tok *session.Token, deps RefreshDeps) RefreshResult {
	now := deps.Now()

	// An unrefreshable token never reaches the store mutation path.
	if tok.Expired(now) {
		return RefreshResult{Failure: RefreshFailureTokenExpired, Err: errors.New("token past refresh horizon")}
	}

	rec, err := deps.Store.Load(ctx, tok)
	if err != nil {
		if errors.Is(err, session.ErrRecordNotFound) {
			return RefreshResult{Failure: RefreshFailureSessionNotFound, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}

	if rec.Expired(now) {
		_ = deps.Store.Invalidate(ctx, tok)
		return RefreshResult{Failure: RefreshFailureExpired, Err: errors.New("record past refresh horizon"), Record: rec}
	}

	switch {
	case rec.Generation == tok.Generation:
		return deps.refreshInStep(ctx, tok, rec, now)

	case rec.Generation == tok.Generation+1:
		return deps.acceptPreviousGeneration(ctx, tok, rec, now)

	default:
		// Token ahead of the store or more than one generation behind:
		// replay anomaly, possible compromise.
		_ = deps.Store.Invalidate(ctx, tok)
		return RefreshResult{Failure: RefreshFailureReplay, Err: errors.New("generation out of protocol"), Record: rec}
	}
}

// refreshInStep handles g_store == g_token: this device is refreshing in step
// with the store. The generation only advances when the previous refresh is
// older than the grace window, collapsing bursts of near-simultaneous refresh
// calls into a single bump.
func (deps *RefreshDeps) refreshInStep(ctx context.Context, tok *session.Token, rec *session.Record, now time.Time) RefreshResult {
	expected := rec.Generation
	if now.Sub(rec.RefreshedUTC) > deps.Grace {
		rec.Generation++
	}
	rec.Device = deps.Device
	rec.IPAddress = deps.IPAddress
	rec.RefreshedUTC = now
	rec.RefreshAfter = deps.RefreshAfter
	if rec.Persistent {
		rec.ValidFor = deps.PersistentExpiry
	} else {
		rec.ValidFor = deps.TemporaryExpiry
	}

	if err := deps.Store.Update(ctx, rec, expected); err != nil {
		if errors.Is(err, session.ErrGenerationConflict) {
			// A concurrent refresh won the compare-and-update between our
			// load and write. Reload once: the losing caller is now exactly
			// the one-generation-behind case the protocol tolerates.
			return deps.retryAsPreviousGeneration(ctx, tok)
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err, Record: rec}
	}

	minted, err := deps.Store.Refresh(ctx, tok, rec)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureMint, Err: err, Record: rec}
	}
	return RefreshResult{Token: minted, Record: rec}
}

// acceptPreviousGeneration handles g_store == g_token+1: the expected state
// for a second concurrent request that arrived after another request already
// refreshed. It is honored only inside the grace window and only when the
// caller looks like the same client; anything else is treated as replay.
func (deps *RefreshDeps) acceptPreviousGeneration(ctx context.Context, tok *session.Token, rec *session.Record, now time.Time) RefreshResult {
	if now.Sub(rec.RefreshedUTC) > deps.Grace {
		_ = deps.Store.Invalidate(ctx, tok)
		return RefreshResult{Failure: RefreshFailureReplay, Err: errors.New("previous generation outside grace window"), Record: rec}
	}
	if deps.MatchDevice && rec.Device != deps.Device {
		_ = deps.Store.Invalidate(ctx, tok)
		return RefreshResult{Failure: RefreshFailureDeviceMismatch, Err: errors.New("device mismatch on previous generation"), Record: rec}
	}
	if deps.MatchIP && rec.IPAddress != deps.IPAddress {
		_ = deps.Store.Invalidate(ctx, tok)
		return RefreshResult{Failure: RefreshFailureIPMismatch, Err: errors.New("ip mismatch on previous generation"), Record: rec}
	}

	// Reuse the record's current generation and timestamp; no store mutation.
	minted, err := deps.Store.Refresh(ctx, tok, rec)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureMint, Err: err, Record: rec}
	}
	return RefreshResult{Token: minted, Record: rec, GraceAccepted: true}
}

func (deps *RefreshDeps) retryAsPreviousGeneration(ctx context.Context, tok *session.Token) RefreshResult {
	now := deps.Now()

	rec, err := deps.Store.Load(ctx, tok)
	if err != nil {
		if errors.Is(err, session.ErrRecordNotFound) {
			return RefreshResult{Failure: RefreshFailureSessionNotFound, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if rec.Expired(now) {
		_ = deps.Store.Invalidate(ctx, tok)
		return RefreshResult{Failure: RefreshFailureExpired, Err: errors.New("record past refresh horizon"), Record: rec}
	}
	if rec.Generation != tok.Generation+1 {
		_ = deps.Store.Invalidate(ctx, tok)
		return RefreshResult{Failure: RefreshFailureReplay, Err: errors.New("generation out of protocol after conflict"), Record: rec}
	}
	return deps.acceptPreviousGeneration(ctx, tok, rec, now)
}
