package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const (
	ReviewerContextKey contextKey = "reviewer"
)

// Claims выдаются внешним бэкендом аутентификации; Subject идентифицирует проверяющего.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Reviewer returns the identity recorded on review decisions.
func (c *Claims) Reviewer() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Email
}

type JWTConfig struct {
	SecretKey string
	TokenTTL  time.Duration
}

type AuthHandler struct {
	jwtConfig *JWTConfig
}

func NewAuthHandler(jwtConfig *JWTConfig) *AuthHandler {
	return &AuthHandler{jwtConfig: jwtConfig}
}

// IssueToken signs a token for subject. The service only verifies tokens in
// production; issuing is used by local tooling and tests.
func (h *AuthHandler) IssueToken(subject, name string) (string, error) {
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.jwtConfig.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtConfig.SecretKey))
}

func (h *AuthHandler) ValidateToken(tokenString string) (*Claims, error) {
	if h.jwtConfig.SecretKey == "" {
		return nil, errors.New("token secret is not configured")
	}
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(h.jwtConfig.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	if claims.Reviewer() == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}

// GetReviewerFromContext извлекает claims проверяющего из контекста
func GetReviewerFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ReviewerContextKey).(*Claims); ok {
		return claims
	}
	return nil
}
