package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRoles must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var principal *auth.Principal
		if p, ok := PrincipalFromContext(c); ok {
			principal = &p
		}

		err := auth.Authorize(principal, allowed...)
		if err == nil {
			c.Next()
			return
		}

		var forbidden *auth.ForbiddenError
		if errors.As(err, &forbidden) {
			abortWithError(c, http.StatusForbidden, "forbidden", forbidden.Error())
			return
		}

		abortWithError(c, http.StatusUnauthorized, "unauthorized", err.Error())
	}
}
