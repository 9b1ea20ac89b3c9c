package auth

import (
	"context"
	"net/http"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

// CookieStrategy carries the same token as BearerStrategy inside a signed,
// HttpOnly cookie.
type CookieStrategy struct {
	tokens *TokenManager
	signer *CookieSigner
	users  UserResolver
	jar    cookieJar
}

func (s *CookieStrategy) Type() SessionType { return SessionCookie }

func (s *CookieStrategy) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	raw := readCookie(r, TokenCookieName)
	if raw == "" {
		return Identity{}, fail(ReasonNoCookieToken)
	}

	token, err := s.signer.Unsign(raw)
	if err != nil {
		return Identity{}, fail(ReasonNoCookieToken)
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, fail(ReasonTokenFailed)
	}

	u, err := resolveUser(ctx, s.users, userID)
	if err != nil {
		return Identity{}, err
	}

	return newIdentity(u, SessionCookie), nil
}

func (s *CookieStrategy) Establish(_ context.Context, w http.ResponseWriter, u user.User) (string, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", err
	}

	s.jar.set(w, TokenCookieName, s.signer.Sign(token))

	return token, nil
}

func (s *CookieStrategy) Revoke(_ context.Context, w http.ResponseWriter, _ *http.Request) (string, error) {
	s.jar.clear(w, TokenCookieName)

	return "Logged out. Cookie cleared.", nil
}

func (s *CookieStrategy) Describe(r *http.Request) map[string]any {
	_, err := s.signer.Unsign(readCookie(r, TokenCookieName))

	return map[string]any{
		"method":        "JWT in signed HttpOnly cookie",
		"storage":       "browser cookie",
		"stateless":     true,
		"cookiePresent": err == nil,
	}
}
