package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionStore maps opaque session ids to user ids. Last writer wins.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Lookup(ctx context.Context, sid string) (userID string, ok bool, err error)
	Destroy(ctx context.Context, sid string) error
}

// backendNamer is implemented by stores that can name their storage for
// session introspection.
type backendNamer interface {
	Backend() string
}

func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

type RedisSessionStore struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisSessionStore(rdb redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &RedisSessionStore{rdb: rdb, ttl: ttl, prefix: "sess:"}
}

func (s *RedisSessionStore) Backend() string { return "redis" }

func (s *RedisSessionStore) key(sid string) string {
	return s.prefix + sid
}

func (s *RedisSessionStore) Create(ctx context.Context, userID string) (string, error) {
	sid, err := NewSessionID()
	if err != nil {
		return "", err
	}

	if err := s.rdb.Set(ctx, s.key(sid), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	return sid, nil
}

func (s *RedisSessionStore) Lookup(ctx context.Context, sid string) (string, bool, error) {
	userID, err := s.rdb.Get(ctx, s.key(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session lookup: %w", err)
	}
	if userID == "" {
		return "", false, nil
	}

	return userID, true, nil
}

func (s *RedisSessionStore) Destroy(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	return nil
}
