// Package auth provides JWT-based authentication for the ticket API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access_token"
	TokenTypeRefresh = "refresh_token"
)

// ErrInvalidToken is returned when a token fails validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload for both access and refresh tokens.
// Each token carries a unique jti so two tokens issued within the same
// second still differ.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
}

// Authenticator issues and validates HS256-signed tokens.
type Authenticator struct {
	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewAuthenticator creates an Authenticator with the given signing key
// and token lifetimes.
func NewAuthenticator(secretKey string, accessTokenTTL, refreshTokenTTL time.Duration) *Authenticator {
	return &Authenticator{
		secretKey:       []byte(secretKey),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// CreateAccessToken issues a short-lived access token for the user.
func (a *Authenticator) CreateAccessToken(userID int64) (string, error) {
	return a.createToken(userID, TokenTypeAccess, a.accessTokenTTL)
}

// CreateRefreshToken issues a longer-lived refresh token for the user.
func (a *Authenticator) CreateRefreshToken(userID int64) (string, error) {
	return a.createToken(userID, TokenTypeRefresh, a.refreshTokenTTL)
}

func (a *Authenticator) createToken(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:    userID,
		TokenType: tokenType,
	})

	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", tokenType, err)
	}

	return signed, nil
}

// ValidateToken parses the token and returns the user ID it was issued
// for. Only tokens of the expected type are accepted: a refresh token
// cannot be used where an access token is required.
func (a *Authenticator) ValidateToken(tokenString, expectedType string) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.TokenType != expectedType {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
