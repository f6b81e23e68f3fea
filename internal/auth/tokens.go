package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that are malformed, expired, signed
// with another key or no longer tied to the current session.
var ErrInvalidToken = errors.New("invalid or expired token")

// Token is issued on a successful login.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

type tokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// newTokenIssuer uses secret when set; otherwise it generates a random key so
// tokens do not outlive the process.
func newTokenIssuer(secret string, expiry time.Duration) (*tokenIssuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
	}
	return &tokenIssuer{secret: key, expiry: expiry}, nil
}

func (t *tokenIssuer) issue(username string, now time.Time) (*Token, error) {
	id := uuid.New().String()
	expiresAt := now.Add(t.expiry)

	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{Value: signed, ID: id, ExpiresAt: expiresAt}, nil
}

func (t *tokenIssuer) parse(value string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
