// Package auth implements the credential primitives of the server: session
// token signing/verification and password hashing.
package auth

import (
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is the session token lifetime used when the
// configuration does not override it.
const DefaultTokenValidity = 7 * 24 * time.Hour

// Claims is the session token payload: registered claims (sub, iat, exp)
// plus the subject's email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// GenerateToken signs an HS256 session token for the given user.
func GenerateToken(userID, email string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies a session token and returns its claims. Every failure
// mode (malformed, tampered, wrong key, expired) collapses to
// common.ErrInvalidToken so callers cannot tell them apart.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
