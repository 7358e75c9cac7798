// Package identity holds the authenticated identity context for the client core.
//
// A Session is created when a bearer token becomes available (login,
// registration or a token restored by the credential store) and ended on
// logout or expiry. It is handed explicitly to the platform client, which
// reads the token on every authenticated call; there is no package-level
// current user.
package identity

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrEmptyToken       = errors.New("bearer token is empty")
	ErrForbidden        = errors.New("forbidden")
)

// IsAuthError reports whether err is an authorization failure. These are
// surfaced to the user and never covered by a fallback.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrForbidden)
}

// Role is the platform role of a user.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// User is the authenticated user as reported by the platform.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Phone string `json:"phone,omitempty"`
}

// DisplayName returns the name to show for the user, never empty.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return "Patient"
}

// Session is the explicit identity context: a bearer token and the user it
// belongs to. The zero value is an ended session.
type Session struct {
	mu        sync.RWMutex
	token     string
	user      User
	expiresAt time.Time
	active    bool
}

// Begin starts a session for the given token and user.
// The token's exp claim, if present, bounds the session lifetime. The
// signature is not checked; only the platform holds the signing key.
func Begin(token string, user User) (*Session, error) {
	s := &Session{}
	if err := s.Begin(token, user); err != nil {
		return nil, err
	}
	return s, nil
}

// Begin (re)initialises the session with a new token and user.
func (s *Session) Begin(token string, user User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	expiresAt := tokenExpiry(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.expiresAt = expiresAt
	s.active = true
	return nil
}

// End tears the session down. Safe to call more than once.
func (s *Session) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = User{}
	s.expiresAt = time.Time{}
	s.active = false
}

// Token returns the bearer token, or an error when the session is not usable.
// An expired session is ended as a side effect.
func (s *Session) Token() (string, error) {
	if s == nil {
		return "", ErrNotAuthenticated
	}

	s.mu.RLock()
	active, token, expiresAt := s.active, s.token, s.expiresAt
	s.mu.RUnlock()

	if !active {
		return "", ErrNotAuthenticated
	}
	if !expiresAt.IsZero() && !time.Now().Before(expiresAt) {
		s.End()
		return "", ErrSessionExpired
	}
	return token, nil
}

// User returns the authenticated user and whether the session is active.
func (s *Session) User() (User, bool) {
	if s == nil {
		return User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.active
}

// SetUser replaces the cached user, e.g. after refreshing /auth/me.
func (s *Session) SetUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.user = user
	}
}

// Active reports whether the session holds a token that has not expired.
func (s *Session) Active() bool {
	_, err := s.Token()
	return err == nil
}

// ExpiresAt returns the token expiry, zero if the token carries none.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// tokenExpiry extracts the exp claim from a JWT without verifying it.
// Opaque (non-JWT) tokens have no client-side expiry.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
