package auth

import (
	"slices"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

// Authorize allows p iff its role is one of allowed. It depends only on the
// principal, never on the strategy that produced it.
func Authorize(p *Principal, allowed ...user.Role) error {
	if p == nil {
		return fail("Not authorized")
	}

	if !slices.Contains(allowed, p.Role) {
		return &ForbiddenError{Role: p.Role, Allowed: allowed}
	}

	return nil
}
