package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Scheme identifies how a stored credential was encoded.
type Scheme string

const (
	// SchemeLegacySHA256 is the unsalted hex SHA-256 digest written by the
	// first deployments. It is only ever verified, never produced for new rows.
	SchemeLegacySHA256 Scheme = "sha256"
	// SchemePBKDF2SHA256 is the default strong scheme.
	SchemePBKDF2SHA256 Scheme = "pbkdf2_sha256"
	// SchemeArgon2id is the PHC formatted argon2id scheme.
	SchemeArgon2id Scheme = "argon2id"
)

var ErrUnknownScheme = errors.New("cryptox: unknown password scheme")

// PasswordCodec turns plaintext passwords into self-describing credentials
// and verifies plaintext against any credential it recognises.
//
// A codec is immutable after construction and safe for concurrent use.
type PasswordCodec struct {
	scheme     Scheme
	iterations int
	argon      Argon2Params
}

// NewPasswordCodec returns a codec that encodes with the named strong scheme.
// For pbkdf2_sha256 the iteration count is clamped to MinPBKDF2Iterations; zero
// selects DefaultPBKDF2Iterations. An empty scheme selects pbkdf2_sha256.
func NewPasswordCodec(scheme string, iterations int) (*PasswordCodec, error) {
	c := &PasswordCodec{
		iterations: DefaultPBKDF2Iterations,
		argon:      DefaultArgon2Params,
	}

	switch Scheme(strings.ToLower(strings.TrimSpace(scheme))) {
	case "", SchemePBKDF2SHA256:
		c.scheme = SchemePBKDF2SHA256
	case SchemeArgon2id:
		c.scheme = SchemeArgon2id
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}

	if iterations != 0 {
		c.iterations = max(iterations, MinPBKDF2Iterations)
	}
	return c, nil
}

// DefaultPasswordCodec returns a pbkdf2_sha256 codec with default parameters.
func DefaultPasswordCodec() *PasswordCodec {
	c, _ := NewPasswordCodec(string(SchemePBKDF2SHA256), DefaultPBKDF2Iterations)
	return c
}

// Scheme reports the scheme used by Encode.
func (c *PasswordCodec) Scheme() Scheme { return c.scheme }

// Iterations reports the pbkdf2 iteration count used by Encode.
func (c *PasswordCodec) Iterations() int { return c.iterations }

// Encode produces a salted credential for plaintext in the configured scheme.
func (c *PasswordCodec) Encode(plaintext string) (string, error) {
	switch c.scheme {
	case SchemeArgon2id:
		return encodeArgon2id(plaintext, c.argon)
	default:
		return encodePBKDF2(plaintext, c.iterations)
	}
}

// Verify reports whether plaintext matches stored. Unparsable or unknown
// stored values never match.
func (c *PasswordCodec) Verify(plaintext, stored string) bool {
	switch scheme, _ := IdentifyScheme(stored); scheme {
	case SchemeLegacySHA256:
		return verifyLegacy(plaintext, stored)
	case SchemePBKDF2SHA256:
		cred, ok := parsePBKDF2(stored)
		return ok && cred.matches(plaintext)
	case SchemeArgon2id:
		cred, ok := parseArgon2id(stored)
		return ok && cred.matches(plaintext)
	default:
		return false
	}
}

// NeedsUpgrade reports whether stored should be rewritten with Encode after
// a successful verification: legacy digests, other strong schemes and strong
// credentials whose parameters differ from the codec's all qualify.
// Unparsable values return false since they can never verify.
func (c *PasswordCodec) NeedsUpgrade(stored string) bool {
	scheme, ok := IdentifyScheme(stored)
	if !ok {
		return false
	}
	if scheme != c.scheme {
		return true
	}

	switch scheme {
	case SchemePBKDF2SHA256:
		cred, _ := parsePBKDF2(stored)
		return cred.iterations != c.iterations || len(cred.key) != keyLength
	case SchemeArgon2id:
		cred, _ := parseArgon2id(stored)
		return cred.params != c.argon
	}
	return false
}

// Recognizes reports whether stored is a credential in any known encoding.
func (c *PasswordCodec) Recognizes(stored string) bool {
	_, ok := IdentifyScheme(stored)
	return ok
}

// IdentifyScheme classifies a stored credential. The boolean is false when
// the value does not parse under any known scheme.
func IdentifyScheme(stored string) (Scheme, bool) {
	switch {
	case isLegacyDigest(stored):
		return SchemeLegacySHA256, true
	case strings.HasPrefix(stored, string(SchemePBKDF2SHA256)+"$"):
		_, ok := parsePBKDF2(stored)
		return SchemePBKDF2SHA256, ok
	case strings.HasPrefix(stored, "$"+string(SchemeArgon2id)+"$"):
		_, ok := parseArgon2id(stored)
		return SchemeArgon2id, ok
	default:
		return "", false
	}
}

func GeneratePassword() (string, error) {
	const charset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const length = 12
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
