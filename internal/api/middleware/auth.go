package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/identity"
)

type userIDKey struct{}

// RequireSession rejects requests while the identity session is not usable.
// The bridge serves a single local user, so the check is against the
// process's session rather than a per-request token.
func RequireSession(sess *identity.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := sess.Token(); err != nil {
				detail := "sign in required"
				if errors.Is(err, identity.ErrSessionExpired) {
					detail = "session has expired, sign in again"
				}
				models.NewUnauthorized(GetRequestID(r.Context()), detail).
					WithInstance(r.URL.Path).
					Write(w)
				return
			}

			ctx := r.Context()
			if user, ok := sess.User(); ok && user.ID != "" {
				ctx = context.WithValue(ctx, userIDKey{}, user.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the signed-in user's id, or "" outside RequireSession.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}
