package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned for a missing or expired session.
var ErrNotFound = errors.New("session not found")

const deleteSessionScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed session store. Each session lives under its own
// key with the token's remaining lifetime as TTL; a per-member set indexes
// a member's sessions.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ms"
	}
	return &Store{redis: redis, prefix: prefix, now: time.Now}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) memberKey(memberID string) string {
	return s.prefix + "m:" + memberID
}

// Save persists sess with the given TTL.
//
//	Performance: 1 pipelined round trip (SET + SADD + PEXPIRE).
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	memberKey := s.memberKey(sess.MemberID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, memberKey, sess.ID)
		pipe.PExpire(ctx, memberKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get loads a session. Blobs in an older schema are rewritten in the current
// one, keeping their TTL.
//
//	Performance: 1 Redis GET, plus SET on migration.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.ID = sessionID

	if sess.Expired(s.now()) {
		if err := s.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	if err := s.maybeMigrateSessionSchema(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) maybeMigrateSessionSchema(ctx context.Context, key string, sess *Session) error {
	if sess.SchemaVersion == CurrentSchemaVersion {
		return nil
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	sess.SchemaVersion = CurrentSchemaVersion
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
//
//	Performance: 1 GET + 1 script call.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	memberID := ""
	if sess, decErr := Decode(data); decErr == nil {
		memberID = sess.MemberID
	}

	if err := deleteSessionLua.Run(ctx, s.redis, []string{key, s.memberKey(memberID)}, sessionID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// MemberSessionCount returns how many sessions are indexed for memberID.
func (s *Store) MemberSessionCount(ctx context.Context, memberID string) (int, error) {
	n, err := s.redis.SCard(ctx, s.memberKey(memberID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(n), nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
