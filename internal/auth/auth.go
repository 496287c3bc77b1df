// Package auth verifies bearer tokens issued by the external identity
// provider and scopes requests to the authenticated user.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Middleware verifies Authorization headers on protected routes
type Middleware struct {
	secret []byte
	log    zerolog.Logger
}

// NewMiddleware creates an auth middleware with the identity provider's
// signing secret
func NewMiddleware(secret string, log zerolog.Logger) *Middleware {
	return &Middleware{
		secret: []byte(secret),
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// verified user id in the request context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeAuthError(w, "No token provided")
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		userID, err := m.verify(token)
		if err != nil {
			m.log.Debug().Err(err).Msg("Token verification failed")
			writeAuthError(w, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// verify checks the token signature and expiry, and extracts the subject
func (m *Middleware) verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject claim")
	}

	return subject, nil
}

// UserID returns the authenticated user id stored in the context, or empty
// when the request did not pass through Authenticate
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID returns a context carrying the given user id. Test helper for
// exercising handlers without the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`, message)
}
