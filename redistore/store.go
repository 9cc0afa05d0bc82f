package redistore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/sessiongate/session"
)

// ErrRecordCorrupt marks a stored blob that no longer decodes. Joined with
// [session.ErrRecordNotFound] so callers treat it as a dead session.
var ErrRecordCorrupt = errors.New("session record corrupt")

const (
	casStatusNotFound int64 = 0
	casStatusConflict int64 = 1
	casStatusUpdated  int64 = 2
)

// Compare-and-update on the generation field. The blob layout pins the
// current generation at bytes 2-5 big-endian (see encoder.go), so the script
// only reads four bytes before deciding.
const updateGenerationScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local b1, b2, b3, b4 = string.byte(data, 2, 5)
if not b4 then
  return 0
end
local gen = ((b1 * 256 + b2) * 256 + b3) * 256 + b4
if gen ~= tonumber(ARGV[1]) then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", tonumber(ARGV[3]))
return 2
`

var updateGenerationLua = redis.NewScript(updateGenerationScript)

// Store is a Redis-backed [session.Store] with TTL-tracked records, a
// per-user session index, and an atomic generation compare-and-update.
//
//	Docs: docs/store.md
type Store struct {
	redis        redis.UniversalClient
	prefix       string
	refreshAfter time.Duration
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; refreshAfter is stamped onto minted
// records and tokens.
func NewStore(client redis.UniversalClient, prefix string, refreshAfter time.Duration) *Store {
	if prefix == "" {
		prefix = "sg"
	}
	return &Store{
		redis:        client,
		prefix:       prefix,
		refreshAfter: refreshAfter,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":sess:" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

// Mint creates the first record/token pair for a fresh sign-in.
//
//	Performance: 1 Redis MULTI (SET + SADD + EXPIRE).
func (s *Store) Mint(ctx context.Context, userID string, info session.SignInInfo) (*session.Token, error) {
	if userID == "" {
		return nil, errors.New("redistore: empty userID")
	}

	rec := &session.Record{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		Device:       info.Device,
		IPAddress:    info.IPAddress,
		RefreshedUTC: time.Now().UTC(),
		RefreshAfter: s.refreshAfter,
		ValidFor:     info.SessionExpiry,
		Generation:   0,
		Persistent:   info.Persistent,
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.SessionID), data, rec.ValidFor)
		pipe.SAdd(ctx, s.userKey(userID), rec.SessionID)
		pipe.Expire(ctx, s.userKey(userID), rec.ValidFor)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}

	return tokenFromRecord(rec), nil
}

// Load resolves the record for the token's session ID.
//
//	Performance: 1 Redis GET.
func (s *Store) Load(ctx context.Context, token *session.Token) (*session.Record, error) {
	data, err := s.redis.Get(ctx, s.key(token.SessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		// A blob we cannot decode is a dead session, not a transport error.
		_ = s.redis.Del(ctx, s.key(token.SessionID)).Err()
		return nil, errors.Join(session.ErrRecordNotFound, ErrRecordCorrupt)
	}
	rec.SessionID = token.SessionID

	return rec, nil
}

// Update persists the record if and only if the stored generation still
// equals expectedGeneration.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-update).
//	Security: the script prevents lost updates under concurrent refreshes.
func (s *Store) Update(ctx context.Context, rec *session.Record, expectedGeneration uint32) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	ttl := rec.ValidFor.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	status, err := updateGenerationLua.Run(
		ctx,
		s.redis,
		[]string{s.key(rec.SessionID)},
		expectedGeneration,
		data,
		ttl,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}

	switch status {
	case casStatusNotFound:
		return session.ErrRecordNotFound
	case casStatusConflict:
		return session.ErrGenerationConflict
	case casStatusUpdated:
		return nil
	default:
		return fmt.Errorf("%w: unknown update script status %d", session.ErrStoreUnavailable, status)
	}
}

// Invalidate removes the record and its index entry. Removing an absent
// record is not an error.
//
//	Performance: 2 Redis commands (DEL + SREM).
func (s *Store) Invalidate(ctx context.Context, token *session.Token) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(token.SessionID))
		if token.UserID != "" {
			pipe.SRem(ctx, s.userKey(token.UserID), token.SessionID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Refresh mints the concrete token for the caller from current record state.
// It performs no I/O and never mutates the record.
func (s *Store) Refresh(ctx context.Context, prev *session.Token, rec *session.Record) (*session.Token, error) {
	return tokenFromRecord(rec), nil
}

// InvalidateAllForUser removes every indexed session for a user. A session
// minted concurrently with this call can escape the sweep; it expires on its
// own TTL.
func (s *Store) InvalidateAllForUser(ctx context.Context, userID string) error {
	userKey := s.userKey(userID)

	sessionIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, sid := range sessionIDs {
			pipe.Del(ctx, s.key(sid))
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// ActiveSessionIDs returns the indexed session IDs for a user. Entries whose
// record already expired are filtered out.
func (s *Store) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, sid := range ids {
		cmds[i] = pipe.Exists(ctx, s.key(sid))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}

	live := make([]string, 0, len(ids))
	for i, cmd := range cmds {
		if n, _ := cmd.Result(); n > 0 {
			live = append(live, ids[i])
		}
	}
	return live, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}

func tokenFromRecord(rec *session.Record) *session.Token {
	return &session.Token{
		SessionID:    rec.SessionID,
		UserID:       rec.UserID,
		RefreshedUTC: rec.RefreshedUTC,
		RefreshAfter: rec.RefreshAfter,
		ValidFor:     rec.ValidFor,
		Generation:   rec.Generation,
		Persistent:   rec.Persistent,
	}
}
