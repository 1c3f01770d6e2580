package server

import (
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload; Sub carries the stable user identifier
type Claims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

// CreateAccessToken signs a token for a user. Used by tests and tooling; the
// production tokens come from the external identity service with the same
// shape and secret.
func CreateAccessToken(secret, sub string, ttl time.Duration) (string, error) {
	claims := Claims{
		Sub: sub,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseValidate verifies a token and returns its claims
func ParseValidate(secret, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auctionerrors.ErrUnauthenticated)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Sub == "" {
		return nil, fmt.Errorf("invalid token claims: %w", auctionerrors.ErrUnauthenticated)
	}
	return c, nil
}

// ErrMissingToken reports a request that carried no credentials at all
var ErrMissingToken = errors.New("missing bearer token")
