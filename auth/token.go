package auth

import (
	"fmt"
	"time"

	"pairchat/domain/chat"
	"pairchat/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "pairchat"

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID    string    `json:"user_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 bearer tokens.
// Access tokens are short-lived; refresh tokens can only be traded for a new access token.
type TokenIssuer struct {
	secret          []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	clock           chat.Clock
}

func NewTokenIssuer(secret string, accessDuration, refreshDuration time.Duration, clock chat.Clock) *TokenIssuer {
	return &TokenIssuer{
		secret:          []byte(secret),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		clock:           clock,
	}
}

// GenerateToken creates a signed JWT of the given type for a user.
func (t *TokenIssuer) GenerateToken(userID chat.UserID, tokenType TokenType) (string, error) {
	duration := t.accessDuration
	if tokenType == RefreshToken {
		duration = t.refreshDuration
	}
	now := t.clock.Now()

	claims := &CustomClaims{
		UserID:    userID.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// ValidateToken checks signature, expiration, issuer and token type,
// then returns the user the token was issued to.
func (t *TokenIssuer) ValidateToken(tokenString string, expected TokenType) (chat.UserID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return 0, errors.ErrInvalidToken
	}
	if claims.TokenType != expected {
		return 0, fmt.Errorf("%w: expected %s token, got %q", errors.ErrInvalidToken, expected, claims.TokenType)
	}

	userID, err := chat.ParseUserID(claims.UserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	return userID, nil
}
