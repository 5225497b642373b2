package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var errEmptySecret = errors.New("jwt secret is not configured")

// OperatorClaims identifies the clinic operator issuing ledger writes.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// IssueOperatorToken signs an HS256 token for operator valid for ttl.
func IssueOperatorToken(operator string, ttl time.Duration) (string, error) {
	secret := GetJWTSecretByte()
	if len(secret) == 0 {
		return "", errEmptySecret
	}
	if operator == "" {
		return "", fmt.Errorf("operator name is required")
	}
	now := time.Now()
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseOperatorToken validates raw and returns the operator name.
func ParseOperatorToken(raw string) (string, error) {
	secret := GetJWTSecretByte()
	if len(secret) == 0 {
		return "", errEmptySecret
	}
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid operator token")
	}
	return claims.Subject, nil
}
