package auth

import (
	"errors"
	"testing"
)

func TestCookieSigner(t *testing.T) {
	s := NewCookieSigner("cookie-secret")

	signed := s.Sign("a.b.c")

	got, err := s.Unsign(signed)
	if err != nil {
		t.Fatalf("unsign: %v", err)
	}
	if got != "a.b.c" {
		t.Fatalf("expected a.b.c, got %q", got)
	}

	bad := []string{
		"",
		"a.b.c",
		signed + "x",
		"z" + signed,
		NewCookieSigner("other").Sign("a.b.c"),
		"value.",
	}
	for _, raw := range bad {
		if _, err := s.Unsign(raw); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("%q: expected ErrInvalidSignature, got %v", raw, err)
		}
	}
}
