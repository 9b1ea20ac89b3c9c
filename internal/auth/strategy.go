package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

const (
	TokenCookieName   = "shop_sphere_token"
	SessionCookieName = "shop_sphere_sid"
)

// Strategy is one of the interchangeable authentication mechanisms. Exactly
// one is selected at startup and injected into the HTTP layer.
type Strategy interface {
	Type() SessionType
	// Authenticate extracts, verifies and resolves the request credential.
	// Rejections are *Failure values; any other error is an infrastructure fault.
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
	// Establish hands a credential to a freshly logged-in user. The returned
	// token is empty for strategies that do not expose one.
	Establish(ctx context.Context, w http.ResponseWriter, u user.User) (string, error)
	Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error)
	Describe(r *http.Request) map[string]any
}

type Options struct {
	Type          SessionType
	Tokens        *TokenManager
	CookieSigner  *CookieSigner
	SessionSigner *CookieSigner
	Sessions      SessionStore
	Users         UserResolver
	SecureCookies bool
	MaxAge        time.Duration
}

func NewStrategy(opts Options) (Strategy, error) {
	if opts.Users == nil {
		return nil, errors.New("auth: user resolver is required")
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultSessionTTL
	}

	jar := cookieJar{secure: opts.SecureCookies, maxAge: opts.MaxAge}

	switch opts.Type {
	case SessionBearer:
		if opts.Tokens == nil {
			return nil, errors.New("auth: bearer strategy needs a token manager")
		}
		return &BearerStrategy{tokens: opts.Tokens, users: opts.Users}, nil

	case SessionCookie:
		if opts.Tokens == nil || opts.CookieSigner == nil {
			return nil, errors.New("auth: cookie strategy needs a token manager and cookie signer")
		}
		return &CookieStrategy{tokens: opts.Tokens, signer: opts.CookieSigner, users: opts.Users, jar: jar}, nil

	case SessionServer:
		if opts.Sessions == nil || opts.SessionSigner == nil {
			return nil, errors.New("auth: server-session strategy needs a session store and signer")
		}
		return &SessionStrategy{sessions: opts.Sessions, signer: opts.SessionSigner, users: opts.Users, jar: jar}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionType, opts.Type)
	}
}

func resolveUser(ctx context.Context, users UserResolver, id string) (user.User, error) {
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return user.User{}, fail(ReasonUserNotFound)
	}
	if err != nil {
		return user.User{}, fmt.Errorf("resolve user: %w", err)
	}

	return u, nil
}

type cookieJar struct {
	secure bool
	maxAge time.Duration
}

func (j cookieJar) set(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(j.maxAge.Seconds()),
		Expires:  time.Now().Add(j.maxAge),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (j cookieJar) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}
