package auth

import (
	"errors"
	"testing"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

func TestAuthorize(t *testing.T) {
	roles := []user.Role{user.RoleCustomer, user.RoleVendor, user.RoleAdmin}
	sets := [][]user.Role{
		{user.RoleAdmin},
		{user.RoleVendor},
		{user.RoleAdmin, user.RoleVendor},
		{user.RoleCustomer, user.RoleVendor, user.RoleAdmin},
		{},
	}

	for _, role := range roles {
		for _, set := range sets {
			p := &Principal{UserID: "u", Role: role, SessionType: SessionBearer}

			err := Authorize(p, set...)

			want := false
			for _, r := range set {
				if r == role {
					want = true
				}
			}

			if want && err != nil {
				t.Fatalf("role %s in %v: expected allow, got %v", role, set, err)
			}
			if !want && !errors.Is(err, ErrForbidden) {
				t.Fatalf("role %s not in %v: expected forbidden, got %v", role, set, err)
			}
		}
	}
}

func TestAuthorize_NoPrincipal(t *testing.T) {
	err := Authorize(nil, user.RoleAdmin)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestForbiddenError_Message(t *testing.T) {
	err := Authorize(&Principal{Role: user.RoleCustomer}, user.RoleAdmin, user.RoleVendor)

	want := "User role 'customer' is not authorized to access this route. Required roles: admin, vendor"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
}
