package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// SessionClaims is the subset of the backend access token the client reads.
// The client never holds the signing key, so claims are read unverified.
type SessionClaims struct {
	Role           string `json:"role"`
	UserRole       string `json:"user_role"`
	OrganizationId any    `json:"organization_id"`
	jwt.StandardClaims
}

var ErrTokenMalformed = errors.New("token is malformed")

// ParseSessionClaims decodes the claims of token without verifying its signature.
func ParseSessionClaims(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// TokenExpiry returns the exp claim; ok is false when the token carries none or is unreadable.
func TokenExpiry(token string) (time.Time, bool) {
	claims, err := ParseSessionClaims(token)
	if err != nil || claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0), true
}

// JwtGenerate signs a token; the client only uses it to build fixtures for the fake API.
func JwtGenerate(subject string, role string, lifespan time.Duration, secret []byte) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			ExpiresAt: now.Add(lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(secret)
}
