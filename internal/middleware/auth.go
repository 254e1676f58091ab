package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"investbook/internal/auth"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	portfolioKey contextKey = "portfolio"
)

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

// WithUserID is used by handler tests that skip the token check.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing authorization header")
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid authorization header")
				return
			}
			authenticate(secret, parts[1], w, r, next)
		})
	}
}

// QueryAuth reads the token from the "token" query parameter. Browsers
// cannot set headers on a websocket handshake.
func QueryAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing token")
				return
			}
			authenticate(secret, token, w, r, next)
		})
	}
}

func authenticate(secret, token string, w http.ResponseWriter, r *http.Request, next http.Handler) {
	claims, err := auth.ParseToken(secret, token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
}
