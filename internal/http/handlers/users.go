package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/http/middlewares"
	"github.com/geocoder89/shopsphere/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name string, role user.Role) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateRole(ctx context.Context, id string, role user.Role) (user.User, error)
}

type UsersHandler struct {
	users    UserStore
	strategy auth.Strategy
}

func NewUsersHandler(users UserStore, strategy auth.Strategy) *UsersHandler {
	return &UsersHandler{users: users, strategy: strategy}
}

type authResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Role        user.Role        `json:"role"`
	SessionType auth.SessionType `json:"sessionType,omitempty"`
	Token       string           `json:"token,omitempty"`
}

// POST /api/users/register
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req.Email, hash, req.Name, user.RoleCustomer)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "User already exists with this email")
			return
		}
		slog.Default().ErrorContext(cctx, "create user failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.strategy.Establish(cctx, ctx.Writer, u)
	if err != nil {
		slog.Default().ErrorContext(cctx, "establish session failed", "user_id", u.ID, "err", err)
		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(http.StatusCreated, authResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Token: token,
	})
}

// POST /api/users/login
func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := boundedCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			slog.Default().ErrorContext(cctx, "login lookup failed", "err", err)
			RespondInternal(ctx, "Could not log in")
			return
		}
		security.BurnCompare(req.Password)
		RespondUnAuthorized(ctx, "Invalid email or password")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondUnAuthorized(ctx, "Invalid email or password")
		return
	}

	token, err := h.strategy.Establish(cctx, ctx.Writer, u)
	if err != nil {
		slog.Default().ErrorContext(cctx, "establish session failed", "user_id", u.ID, "err", err)
		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(http.StatusOK, authResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		SessionType: h.strategy.Type(),
		Token:       token,
	})
}

// GET /api/users/profile
func (h *UsersHandler) Profile(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, auth.ReasonNoToken)
		return
	}

	ctx.JSON(http.StatusOK, id.User)
}

// GET /api/users/:id
func (h *UsersHandler) GetPublic(ctx *gin.Context) {
	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

// PUT /api/users/:id/role
func (h *UsersHandler) UpdateRole(ctx *gin.Context) {
	var req user.UpdateRoleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if !req.Role.IsValid() {
		RespondBadRequest(ctx, "Invalid role. Must be customer, vendor, or admin", nil)
		return
	}

	cctx, cancel := boundedCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.UpdateRole(cctx, ctx.Param("id"), req.Role)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update role")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
