package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultIssuer is stamped into every session token.
	DefaultIssuer = "fleetdesk"

	// DefaultLeeway absorbs clock skew between instances sharing a secret.
	DefaultLeeway = 30 * time.Second
)

// Claims are the session cookie claims. The token only points at a
// server-side session; it carries no authority of its own.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, the key into the session store
	SID string `json:"sid"`
}

// NewSessionClaims builds claims for sid that expire after ttl.
func NewSessionClaims(sid, handle, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   handle,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID: sid,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer against expected. An empty expected
// issuer accepts any.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryWithLeeway checks exp and nbf against now, allowing leeway
// of clock skew. A token without exp is rejected.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
