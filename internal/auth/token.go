// Package auth provides password hashing and JWT issuance/verification for
// the account and session endpoints.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kaleidoscope/internal/domain"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

const (
	// AccessTokenTTL bounds how long an access token is honored.
	AccessTokenTTL = 15 * time.Minute
	// RefreshTokenTTL bounds session (and refresh token) lifetime.
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims is the JWT payload for both token types.
type Claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Manager signs and verifies the API's HMAC-SHA256 tokens.
type Manager struct {
	secret []byte
}

// NewManager creates a token manager with the given signing secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue signs a token of the given type for a user.
func (m *Manager) Issue(userID string, typ TokenType) (string, error) {
	ttl := AccessTokenTTL
	if typ == TokenRefresh {
		ttl = RefreshTokenTTL
	}

	now := time.Now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token, checks its signature and expiry, and enforces the
// expected token type. It returns the subject user id.
func (m *Manager) Verify(tokenString string, want TokenType) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken
	}
	if claims.Type != want || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
