package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// MinSecretSize is the shortest HMAC secret NewHS256 accepts.
const MinSecretSize = 32

// HS256 signs and verifies session tokens with a shared secret.
type HS256 struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < MinSecretSize {
		return nil, fmt.Errorf("jwtx: secret must be at least %d bytes", MinSecretSize)
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &HS256{
		secret: secret,
		issuer: issuer,
		leeway: DefaultLeeway,
		now:    time.Now,
	}, nil
}

// Sign returns a compact token pointing at session sid.
func (s *HS256) Sign(sid, handle string, ttl time.Duration) (string, error) {
	claims := NewSessionClaims(sid, handle, s.issuer, ttl, s.now().UTC())
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify parses token, checks its signature, issuer and validity window, and
// returns its claims.
func (s *HS256) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrAlgMismatch
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Claims{}, ErrMalformed
	case errors.Is(err, ErrAlgMismatch):
		return Claims{}, ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	default:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(s.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(s.now().UTC(), s.leeway); err != nil {
		return Claims{}, err
	}
	if claims.SID == "" {
		return Claims{}, ErrInvalidClaim
	}
	return claims, nil
}
