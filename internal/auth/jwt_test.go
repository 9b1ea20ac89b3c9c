package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	for _, id := range []string{"u-1", "6f1c2c1e-7b1a-4a51-9d0f-0c3a8b2d1e55", "x"} {
		tok, err := m.Issue(id)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}

		got, err := m.Verify(tok)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if got != id {
			t.Fatalf("expected %q, got %q", id, got)
		}
	}
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", -time.Minute)

	tok, err := m.Issue("u-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_RejectsTampered(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	tok, err := m.Issue("u-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}

	other, _ := NewTokenManager("secret", time.Hour).Issue("u-2")
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	cases := map[string]string{
		"swapped payload": forged,
		"garbage":         "not-a-token",
		"empty":           "",
		"truncated sig":   tok[:len(tok)-3],
	}

	for name, raw := range cases {
		if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	tok, _ := NewTokenManager("other", time.Hour).Issue("u-1")

	if _, err := NewTokenManager("secret", time.Hour).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenManager("secret", time.Hour).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
