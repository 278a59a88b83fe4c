// Package middleware provides HTTP middleware for the dittoacl API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/pkg/api/auth"
	"github.com/marmos91/dittoacl/pkg/api/handlers"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// GetClaimsFromContext retrieves JWT claims from the request context.
// Returns nil on routes without JWTAuth.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// extractBearerToken extracts the token from a Bearer Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// JWTAuth validates Bearer tokens in the Authorization header. Valid claims
// are stored in the request context and the subject is attached to the log
// context. Missing or invalid tokens get 401.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				handlers.Unauthorized(w, "Authorization header required")
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				handlers.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			ctx, lc := logger.EnsureContext(ctx)
			ctx = logger.WithContext(ctx, lc.WithSubject(claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
