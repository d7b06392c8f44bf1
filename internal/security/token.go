package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("security: invalid token")

// Claims carries the authenticated user identity inside a JWT.
type Claims struct {
	UserID uint64
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the user with the given lifetime.
func IssueToken(secret string, expiry time.Duration, userID uint64) (string, error) {
	if secret == "" {
		return "", errors.New("security: empty jwt secret")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseToken validates an HS256 token and returns the embedded user claims.
func ParseToken(secret, raw string) (Claims, error) {
	parsed, errParse := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errParse != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	registered, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || registered.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	userID, errID := strconv.ParseUint(registered.Subject, 10, 64)
	if errID != nil || userID == 0 {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: userID, RegisteredClaims: *registered}, nil
}
