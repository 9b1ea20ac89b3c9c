package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	strategy auth.Strategy
}

func NewSessionHandler(strategy auth.Strategy) *SessionHandler {
	return &SessionHandler{strategy: strategy}
}

type sessionUser struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

// GET /api/session/info
func (h *SessionHandler) Info(ctx *gin.Context) {
	var u *sessionUser
	if id, ok := middlewares.IdentityFromContext(ctx); ok {
		u = &sessionUser{
			ID:    id.User.ID,
			Name:  id.User.Name,
			Email: id.User.Email,
			Role:  id.User.Role,
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"sessionType":     h.strategy.Type(),
		"isAuthenticated": u != nil,
		"user":            u,
		"details":         h.strategy.Describe(ctx.Request),
	})
}

// POST /api/session/logout
func (h *SessionHandler) Logout(ctx *gin.Context) {
	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	msg, err := h.strategy.Revoke(cctx, ctx.Writer, ctx.Request)
	if err != nil {
		slog.Default().ErrorContext(cctx, "revoke session failed", "session_type", h.strategy.Type(), "err", err)
		RespondInternal(ctx, "Error destroying session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": msg})
}

type strategyProfile struct {
	Name    string   `json:"name"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
	UseCase string   `json:"useCase"`
}

var strategyComparison = map[string]strategyProfile{
	"jwt": {
		Name: "JWT (JSON Web Tokens)",
		Pros: []string{
			"Stateless - no server storage needed",
			"Scalable - works across multiple servers",
			"Mobile-friendly",
			"Can include user data in token",
		},
		Cons: []string{
			"Token size can be large",
			"Cannot revoke token until expiry",
			"Stored client-side (XSS risk if not handled properly)",
			"Requires secure storage",
		},
		UseCase: "Best for: APIs, mobile apps, microservices, stateless architectures",
	},
	"cookie": {
		Name: "Cookie-based (Signed HTTP-only Cookies)",
		Pros: []string{
			"HTTP-only cookies prevent XSS attacks",
			"Automatic cookie handling by browser",
			"Signed cookies prevent tampering",
			"Stateless (JWT in cookie)",
		},
		Cons: []string{
			"CSRF vulnerability (mitigated with SameSite)",
			"Cookie size limitations",
			"Browser dependency",
			"Requires HTTPS in production",
		},
		UseCase: "Best for: Traditional web applications, when you want automatic cookie handling",
	},
	"serverSide": {
		Name: "Server-side Sessions",
		Pros: []string{
			"Most secure - session data never leaves server",
			"Can revoke sessions immediately",
			"No size limitations",
			"Works with any client",
		},
		Cons: []string{
			"Requires server-side storage",
			"Not stateless - harder to scale horizontally",
			"Requires sticky sessions or shared storage",
			"More server resources",
		},
		UseCase: "Best for: High-security applications, when you need session revocation, traditional web apps",
	},
}

// GET /api/session/compare
func (h *SessionHandler) Compare(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"currentMethod":  h.strategy.Type(),
		"comparison":     strategyComparison,
		"recommendation": "Choose based on your security requirements, scalability needs, and application type.",
	})
}
