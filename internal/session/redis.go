package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "interview:call:"
	sessionTTL       = 24 * time.Hour
)

// RedisStore persists sessions in Redis so state survives process restarts.
// Per-call mutual exclusion is process-local: webhooks for one call are
// serialized within this instance, which matches the single-instance
// deployment model.
type RedisStore struct {
	rdb   *redis.Client
	locks *keyedLocks
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, locks: newKeyedLocks()}
}

var _ Store = (*RedisStore)(nil)

func sessionKey(callID string) string {
	return sessionKeyPrefix + callID
}

// Create registers a new session for callID.
func (s *RedisStore) Create(ctx context.Context, callID, callerNumber string) (*Session, error) {
	if callID == "" {
		return nil, fmt.Errorf("session: call id required")
	}
	release := s.locks.acquire(callID)
	defer release()

	sess := NewSession(callID, callerNumber)
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("session: marshal: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, sessionKey(callID), data, sessionTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("session: redis setnx: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, callID)
	}
	return sess, nil
}

// Get retrieves the session for callID.
func (s *RedisStore) Get(ctx context.Context, callID string) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, callID)
		}
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &sess, nil
}

// Mutate applies fn to callID's session under its per-call lock and writes
// the result back.
func (s *RedisStore) Mutate(ctx context.Context, callID string, fn func(*Session) error) error {
	release := s.locks.acquire(callID)
	defer release()

	sess, err := s.Get(ctx, callID)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(callID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Remove deletes callID's session; absent sessions are ignored.
func (s *RedisStore) Remove(ctx context.Context, callID string) error {
	if err := s.rdb.Del(ctx, sessionKey(callID)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}
