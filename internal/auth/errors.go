package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSessionNotFound  = errors.New("session not found")
)

const (
	ReasonNoToken       = "Not authorized, no token"
	ReasonTokenFailed   = "Not authorized, token failed"
	ReasonNoCookieToken = "Not authorized, no cookie token"
	ReasonNoSession     = "Not authorized, no session"
	ReasonUserNotFound  = "User not found"
)

// Failure is an authentication rejection with a human-readable reason.
type Failure struct {
	Reason string
}

func (f *Failure) Error() string { return f.Reason }

func (f *Failure) Unwrap() error { return ErrUnauthenticated }

func fail(reason string) error {
	return &Failure{Reason: reason}
}

type ForbiddenError struct {
	Role    user.Role
	Allowed []user.Role
}

func (e *ForbiddenError) Error() string {
	names := make([]string, 0, len(e.Allowed))
	for _, r := range e.Allowed {
		names = append(names, string(r))
	}

	return fmt.Sprintf("User role '%s' is not authorized to access this route. Required roles: %s",
		e.Role, strings.Join(names, ", "))
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }
