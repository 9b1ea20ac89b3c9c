package auth

import (
	"context"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

// Principal is the normalized output of whichever strategy authenticated a request.
type Principal struct {
	UserID      string      `json:"userId"`
	Role        user.Role   `json:"role"`
	SessionType SessionType `json:"sessionType"`
}

type Identity struct {
	Principal Principal
	User      user.User
}

type UserResolver interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

func newIdentity(u user.User, t SessionType) Identity {
	return Identity{
		Principal: Principal{UserID: u.ID, Role: u.Role, SessionType: t},
		User:      u,
	}
}
