package handlers

import (
	"context"
	"net/http"

	"cowrite/internal/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// AuthRequired validates the Authorization header and stashes the caller's
// user id in the request context.
func AuthRequired(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := utils.VerifyToken(r, jwtSecret)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			userID, err := utils.GetUserIDFromClaims(claims)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id set by AuthRequired.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok
}
