package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

type SessionStrategy struct {
	sessions SessionStore
	signer   *CookieSigner
	users    UserResolver
	jar      cookieJar
}

func (s *SessionStrategy) Type() SessionType { return SessionServer }

func (s *SessionStrategy) sessionID(r *http.Request) string {
	sid, err := s.signer.Unsign(readCookie(r, SessionCookieName))
	if err != nil {
		return ""
	}

	return sid
}

func (s *SessionStrategy) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	sid := s.sessionID(r)
	if sid == "" {
		return Identity{}, fail(ReasonNoSession)
	}

	userID, ok, err := s.sessions.Lookup(ctx, sid)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, fail(ReasonNoSession)
	}

	u, err := resolveUser(ctx, s.users, userID)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			// user is gone: the session must not outlive it
			if derr := s.sessions.Destroy(ctx, sid); derr != nil {
				return Identity{}, fmt.Errorf("destroy orphaned session: %w", derr)
			}
		}
		return Identity{}, err
	}

	return newIdentity(u, SessionServer), nil
}

func (s *SessionStrategy) Establish(ctx context.Context, w http.ResponseWriter, u user.User) (string, error) {
	sid, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return "", err
	}

	s.jar.set(w, SessionCookieName, s.signer.Sign(sid))

	return "", nil
}

func (s *SessionStrategy) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	if sid := s.sessionID(r); sid != "" {
		if err := s.sessions.Destroy(ctx, sid); err != nil {
			return "", err
		}
	}

	s.jar.clear(w, SessionCookieName)

	return "Logged out. Session destroyed.", nil
}

func (s *SessionStrategy) Describe(r *http.Request) map[string]any {
	sid := s.sessionID(r)

	d := map[string]any{
		"method":         "server-side session",
		"stateless":      false,
		"sessionPresent": sid != "",
	}
	if n, ok := s.sessions.(backendNamer); ok {
		d["storage"] = n.Backend()
	}

	return d
}
