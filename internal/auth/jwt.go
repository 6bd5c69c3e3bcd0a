// Package auth issues and verifies the bearer tokens the API layer
// uses to resolve the acting user.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextUserIDKey is the gin context key the middleware sets.
const ContextUserIDKey = "user_id"

// TokenIssuer signs and verifies HS256 user tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the user.
func (t *TokenIssuer) Issue(userID uuid.UUID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ParseUserID verifies a token and extracts the user ID from its
// subject claim.
func (t *TokenIssuer) ParseUserID(tokenString string) (uuid.UUID, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to verify token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, fmt.Errorf("token has no subject")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject is not a user id: %w", err)
	}
	return userID, nil
}

// OptionalAuth resolves the bearer token when present and stores the
// user ID in the gin context. Requests without a valid token proceed
// anonymously; each handler decides whether that is acceptable.
func (t *TokenIssuer) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			if userID, err := t.ParseUserID(header); err == nil {
				c.Set(ContextUserIDKey, userID.String())
			}
		}
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user, or nil for
// anonymous requests.
func UserIDFromContext(c *gin.Context) *uuid.UUID {
	value := c.GetString(ContextUserIDKey)
	if value == "" {
		return nil
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &userID
}
