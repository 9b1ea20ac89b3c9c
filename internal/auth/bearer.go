package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

type BearerStrategy struct {
	tokens *TokenManager
	users  UserResolver
}

func (s *BearerStrategy) Type() SessionType { return SessionBearer }

func (s *BearerStrategy) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return Identity{}, fail(ReasonNoToken)
	}

	userID, err := s.tokens.Verify(raw)
	if err != nil {
		return Identity{}, fail(ReasonTokenFailed)
	}

	u, err := resolveUser(ctx, s.users, userID)
	if err != nil {
		return Identity{}, err
	}

	return newIdentity(u, SessionBearer), nil
}

func (s *BearerStrategy) Establish(_ context.Context, _ http.ResponseWriter, u user.User) (string, error) {
	return s.tokens.Issue(u.ID)
}

// Bearer tokens cannot be revoked before expiry; the client drops them.
func (s *BearerStrategy) Revoke(context.Context, http.ResponseWriter, *http.Request) (string, error) {
	return "Logged out. Please remove token from client storage.", nil
}

func (s *BearerStrategy) Describe(r *http.Request) map[string]any {
	return map[string]any{
		"method":       "JWT in Authorization header",
		"storage":      "client-side",
		"stateless":    true,
		"tokenPresent": bearerToken(r) != "",
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(h[len(prefix):])
}
