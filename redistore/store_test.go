package redistore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/sessiongate/session"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "sg", 15*time.Minute)

	return store, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func signInInfo() session.SignInInfo {
	return session.SignInInfo{
		Device:        "Mozilla/5.0 test",
		IPAddress:     "203.0.113.7",
		SessionExpiry: 12 * time.Hour,
		Persistent:    false,
	}
}

func TestMintLoadRoundTrip(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	tok, err := store.Mint(ctx, "user-1", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if tok.SessionID == "" || tok.Generation != 0 {
		t.Fatalf("unexpected minted token: %+v", tok)
	}
	if tok.RefreshAfter != 15*time.Minute {
		t.Fatalf("refreshAfter not stamped: %v", tok.RefreshAfter)
	}

	rec, err := store.Load(ctx, tok)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rec.UserID != "user-1" || rec.Device != "Mozilla/5.0 test" || rec.IPAddress != "203.0.113.7" {
		t.Fatalf("record fields lost: %+v", rec)
	}
	if rec.Generation != 0 || rec.SessionID != tok.SessionID {
		t.Fatalf("record identity mismatch: %+v", rec)
	}
}

func TestLoadMissingRecord(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()

	_, err := store.Load(context.Background(), &session.Token{SessionID: "nope"})
	if !errors.Is(err, session.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestLoadCorruptRecord(t *testing.T) {
	store, mr, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	tok, err := store.Mint(ctx, "user-1", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	mr.Set("sg:sess:"+tok.SessionID, "garbage")

	_, err = store.Load(ctx, tok)
	if !errors.Is(err, session.ErrRecordNotFound) {
		t.Fatalf("corrupt blob should surface as record-not-found, got %v", err)
	}
	if !errors.Is(err, ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt detail, got %v", err)
	}
	if mr.Exists("sg:sess:" + tok.SessionID) {
		t.Fatal("corrupt blob not deleted")
	}
}

func TestUpdateCompareAndUpdate(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	tok, err := store.Mint(ctx, "user-1", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	rec, err := store.Load(ctx, tok)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	rec.Generation = 1
	rec.RefreshedUTC = time.Now().UTC()
	if err := store.Update(ctx, rec, 0); err != nil {
		t.Fatalf("update with matching generation failed: %v", err)
	}

	// A second writer still expecting generation 0 must lose.
	stale := *rec
	stale.Generation = 1
	if err := store.Update(ctx, &stale, 0); !errors.Is(err, session.ErrGenerationConflict) {
		t.Fatalf("expected ErrGenerationConflict, got %v", err)
	}

	got, err := store.Load(ctx, tok)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Generation != 1 {
		t.Fatalf("stored generation %d, want 1", got.Generation)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()

	rec := &session.Record{
		SessionID:    "ghost",
		UserID:       "user-1",
		RefreshedUTC: time.Now().UTC(),
		ValidFor:     time.Hour,
	}
	if err := store.Update(context.Background(), rec, 0); !errors.Is(err, session.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	store, mr, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	tok, err := store.Mint(ctx, "user-1", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := store.Invalidate(ctx, tok); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if mr.Exists("sg:sess:" + tok.SessionID) {
		t.Fatal("record still present after invalidate")
	}
	if err := store.Invalidate(ctx, tok); err != nil {
		t.Fatalf("second invalidate must be a no-op, got %v", err)
	}
	if _, err := store.Load(ctx, tok); !errors.Is(err, session.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after invalidate, got %v", err)
	}
}

func TestRecordTTLExpires(t *testing.T) {
	store, mr, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	info := signInInfo()
	info.SessionExpiry = time.Minute
	tok, err := store.Mint(ctx, "user-1", info)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Load(ctx, tok); !errors.Is(err, session.ErrRecordNotFound) {
		t.Fatalf("expected expired record to be gone, got %v", err)
	}
}

func TestInvalidateAllForUser(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	tok1, err := store.Mint(ctx, "user-1", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	tok2, err := store.Mint(ctx, "user-1", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	other, err := store.Mint(ctx, "user-2", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	ids, err := store.ActiveSessionIDs(ctx, "user-1")
	if err != nil {
		t.Fatalf("active session ids failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 active sessions, got %d", len(ids))
	}

	if err := store.InvalidateAllForUser(ctx, "user-1"); err != nil {
		t.Fatalf("invalidate all failed: %v", err)
	}

	for _, tok := range []*session.Token{tok1, tok2} {
		if _, err := store.Load(ctx, tok); !errors.Is(err, session.ErrRecordNotFound) {
			t.Fatalf("session %s survived sweep: %v", tok.SessionID, err)
		}
	}
	if _, err := store.Load(ctx, other); err != nil {
		t.Fatalf("unrelated user's session swept: %v", err)
	}
}

func TestRefreshMintsFromRecord(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	tok, err := store.Mint(ctx, "user-1", signInInfo())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	rec, err := store.Load(ctx, tok)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	minted, err := store.Refresh(ctx, tok, rec)
	if err != nil {
		t.Fatalf("refresh mint failed: %v", err)
	}
	if minted.Generation != rec.Generation || minted.SessionID != rec.SessionID {
		t.Fatalf("minted token does not mirror record: %+v", minted)
	}
}

func TestRecordCodecRoundTrip(t *testing.T) {
	rec := &session.Record{
		SessionID:    "sid-1",
		UserID:       "user-1",
		Device:       "Mozilla/5.0 (X11; Linux x86_64)",
		IPAddress:    "2001:db8::1",
		RefreshedUTC: time.UnixMilli(1700000000000).UTC(),
		RefreshAfter: 15 * time.Minute,
		ValidFor:     30 * 24 * time.Hour,
		Generation:   9,
		Persistent:   true,
	}

	data, err := encodeRecord(rec)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := decodeRecord(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	got.SessionID = rec.SessionID // assigned from the key on Load
	if *got != *rec {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}

	// Generation must sit at the fixed offset the Lua script reads.
	gen := uint32(data[1])<<24 | uint32(data[2])<<16 | uint32(data[3])<<8 | uint32(data[4])
	if gen != 9 {
		t.Fatalf("generation not at fixed offset: %d", gen)
	}
}
