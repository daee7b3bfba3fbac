package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey string

// userIDContextKey is the context key for the authenticated user ID.
const userIDContextKey contextKey = "auth.userID"

// UserIDFromContext returns the authenticated user ID stored by the
// middleware. The second return value is false on unauthenticated
// requests.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

// ContextWithUserID stores the user ID on the context. Exposed for tests.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// Middleware creates a middleware that requires a valid Bearer access
// token and stores the authenticated user ID on the request context.
func Middleware(authenticator *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			userID, err := authenticator.ValidateToken(tokenString, TokenTypeAccess)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			r = r.WithContext(ContextWithUserID(r.Context(), userID))
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"detail":"` + detail + `"}`))
}
