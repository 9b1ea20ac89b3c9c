package db

import (
	"context"
	"errors"

	"github.com/geocoder89/shopsphere/internal/config"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/security"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash, name string, role user.Role) (user.User, error)
	UpdateRole(ctx context.Context, id string, role user.Role) (user.User, error)
}

// EnsureAdminUser creates the configured admin account, or promotes an
// existing account with that email. It is a no-op without ADMIN_EMAIL/ADMIN_PASSWORD.
func EnsureAdminUser(ctx context.Context, users AdminStore, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	existing, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		if existing.Role == user.RoleAdmin {
			return nil
		}
		_, err = users.UpdateRole(ctx, existing.ID, user.RoleAdmin)
		return err
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	_, err = users.Create(ctx, cfg.AdminEmail, hash, cfg.AdminName, user.RoleAdmin)
	if errors.Is(err, user.ErrEmailTaken) {
		// another instance seeded it first
		return nil
	}

	return err
}
