package auth

import (
	"errors"
	"fmt"
	"strings"
)

// SessionType selects the single authentication strategy a process runs with.
type SessionType string

const (
	SessionBearer SessionType = "bearer"
	SessionCookie SessionType = "cookie"
	SessionServer SessionType = "server-session"
)

var ErrInvalidSessionType = errors.New("invalid session type")

// ParseSessionType accepts the canonical names plus the legacy "jwt" and
// "server-side" spellings.
func ParseSessionType(raw string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bearer", "jwt":
		return SessionBearer, nil
	case "cookie":
		return SessionCookie, nil
	case "server-session", "server-side", "session":
		return SessionServer, nil
	default:
		return "", fmt.Errorf("%w: %q (want bearer, cookie or server-session)", ErrInvalidSessionType, raw)
	}
}
