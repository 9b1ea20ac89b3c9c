package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// CookieSigner appends an HMAC-SHA256 tag to cookie values: "<value>.<tag>".
type CookieSigner struct {
	secret []byte
}

func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret)}
}

func (s *CookieSigner) Sign(value string) string {
	return value + "." + s.mac(value)
}

func (s *CookieSigner) Unsign(signed string) (string, error) {
	i := strings.LastIndex(signed, ".")
	if i <= 0 || i == len(signed)-1 {
		return "", ErrInvalidSignature
	}

	value, tag := signed[:i], signed[i+1:]

	if !hmac.Equal([]byte(tag), []byte(s.mac(value))) {
		return "", ErrInvalidSignature
	}

	return value, nil
}

func (s *CookieSigner) mac(value string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(value))

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
