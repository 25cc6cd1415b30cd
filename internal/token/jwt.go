// Package token issues and parses HS256 access tokens bound to an account id.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or subject checks.
var ErrInvalidToken = errors.New("invalid token")

// Issuer signs access tokens with a shared HMAC key.
type Issuer struct {
	signKey   []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewIssuer constructs an Issuer.
func NewIssuer(signKey []byte, accessTTL time.Duration) *Issuer {
	return &Issuer{signKey: signKey, accessTTL: accessTTL, now: time.Now}
}

// Issue creates a signed HS256 JWT whose subject is the account id.
func (i *Issuer) Issue(accountID int64) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(accountID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.signKey)
}

// Parse is the verification half of Issuer: it checks the HS256 signature
// and expiry of tokenString and returns the account id it was issued for.
func (i *Issuer) Parse(tokenString string) (int64, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return i.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
