package memory

import (
	"context"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/cache"
)

// SessionStore is a process-local auth.SessionStore for dev runs without redis.
type SessionStore struct {
	c *cache.Cache[string]
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}
	return &SessionStore{c: cache.New[string](ttl)}
}

func (s *SessionStore) Backend() string { return "memory" }

func (s *SessionStore) Create(_ context.Context, userID string) (string, error) {
	sid, err := auth.NewSessionID()
	if err != nil {
		return "", err
	}
	s.c.Set(sid, userID)
	return sid, nil
}

func (s *SessionStore) Lookup(_ context.Context, sid string) (string, bool, error) {
	userID, ok := s.c.Get(sid)
	if !ok || userID == "" {
		return "", false, nil
	}
	return userID, true, nil
}

func (s *SessionStore) Destroy(_ context.Context, sid string) error {
	s.c.Delete(sid)
	return nil
}
