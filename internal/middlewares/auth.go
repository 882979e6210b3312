package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Bessima/fieldops/internal/handlers"
	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"go.uber.org/zap"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*handlers.Claims, error)
}

func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			} else if cookie, err := r.Cookie("access_token"); err == nil {
				tokenString = cookie.Value
			}

			if tokenString == "" {
				http.Error(w, "Authorization token required", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				logger.Log.Debug("token rejected", zap.Error(err))
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.ReviewerContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
