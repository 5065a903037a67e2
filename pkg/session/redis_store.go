package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions in Redis with a TTL matching the session
// expiry, so Redis evicts expired sessions on its own and DeleteExpired is
// a no-op. A per-user set indexes tokens for DeleteByUserID.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix namespaces session keys. Default "session:".
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	rs := &RedisStore{
		client:    client,
		keyPrefix: "session:",
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

func (rs *RedisStore) sessionKey(token string) string {
	return rs.keyPrefix + token
}

func (rs *RedisStore) userKey(userID string) string {
	return rs.keyPrefix + "user:" + userID
}

func (rs *RedisStore) Create(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrInvalidSession
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.sessionKey(sess.Token), data, ttl)
	pipe.SAdd(ctx, rs.userKey(sess.UserID.String()), sess.Token)
	pipe.Expire(ctx, rs.userKey(sess.UserID.String()), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (rs *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := rs.client.Get(ctx, rs.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}

	// TTL and expiry normally agree, but guard against clock drift.
	if sess.IsExpired() {
		_ = rs.Delete(ctx, token)
		return nil, ErrExpired
	}

	return &sess, nil
}

func (rs *RedisStore) UpdateExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	sess, err := rs.Get(ctx, token)
	if err != nil {
		return err
	}

	sess.ExpiresAt = expiresAt
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return rs.client.Set(ctx, rs.sessionKey(token), data, time.Until(expiresAt)).Err()
}

func (rs *RedisStore) Delete(ctx context.Context, token string) error {
	sess, err := rs.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
			return nil
		}
		return err
	}

	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, rs.sessionKey(token))
	pipe.SRem(ctx, rs.userKey(sess.UserID.String()), token)
	_, err = pipe.Exec(ctx)
	return err
}

func (rs *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	tokens, err := rs.client.SMembers(ctx, rs.userKey(userID)).Result()
	if err != nil {
		return err
	}

	pipe := rs.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, rs.sessionKey(token))
	}
	pipe.Del(ctx, rs.userKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteExpired is a no-op: Redis evicts sessions via TTL.
func (rs *RedisStore) DeleteExpired(ctx context.Context) error {
	return nil
}

var _ Store = (*RedisStore)(nil)
