package middlewares

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/shopsphere/internal/actorctx"
	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware runs the configured strategy; it never knows which one.
type AuthMiddleware struct {
	strategy auth.Strategy
	prom     *observability.Prom
}

func NewAuthMiddleware(strategy auth.Strategy, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{strategy: strategy, prom: prom}
}

func (m *AuthMiddleware) Strategy() auth.Strategy {
	return m.strategy
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.strategy.Authenticate(c.Request.Context(), c.Request)
		if err != nil {
			m.reject(c, err)
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth attaches an identity when the request carries a valid
// credential and lets anonymous requests through otherwise.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.strategy.Authenticate(c.Request.Context(), c.Request)
		if err == nil {
			setIdentity(c, id)
		} else if !errors.Is(err, auth.ErrUnauthenticated) {
			slog.Default().WarnContext(c.Request.Context(), "optional auth failed", "err", err)
		}

		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, err error) {
	var failure *auth.Failure
	if errors.As(err, &failure) {
		m.prom.ObserveAuthFailure(string(m.strategy.Type()))
		abortWithError(c, http.StatusUnauthorized, "unauthorized", failure.Reason)
		return
	}

	slog.Default().ErrorContext(c.Request.Context(), "authentication error",
		"session_type", m.strategy.Type(), "err", err)
	abortWithError(c, http.StatusInternalServerError, "internal_error", "Authentication failed")
}

func setIdentity(c *gin.Context, id auth.Identity) {
	c.Set(CtxPrincipal, id.Principal)
	c.Set(CtxIdentity, id)
	c.Request = c.Request.WithContext(actorctx.WithPrincipal(c.Request.Context(), id.Principal))
}

func PrincipalFromContext(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	p, ok := PrincipalFromContext(c)
	if !ok || p.UserID == "" {
		return "", false
	}
	return p.UserID, true
}
