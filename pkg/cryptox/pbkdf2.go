package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinPBKDF2Iterations is the floor for newly encoded pbkdf2 credentials.
	MinPBKDF2Iterations = 100_000
	// DefaultPBKDF2Iterations is used when no iteration count is configured.
	DefaultPBKDF2Iterations = 310_000

	// Stored values above this are treated as corrupt rather than computed.
	maxPBKDF2Iterations = 10_000_000

	keyLength  = 32
	saltLength = 16
)

type pbkdf2Credential struct {
	iterations int
	salt       []byte
	key        []byte
}

// encodePBKDF2 returns pbkdf2_sha256$<iterations>$<salt>$<key>.
func encodePBKDF2(plaintext string, iterations int) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plaintext), salt, iterations, keyLength, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		SchemePBKDF2SHA256,
		iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func parsePBKDF2(stored string) (pbkdf2Credential, bool) {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 || parts[0] != string(SchemePBKDF2SHA256) {
		return pbkdf2Credential{}, false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 || iterations > maxPBKDF2Iterations {
		return pbkdf2Credential{}, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return pbkdf2Credential{}, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return pbkdf2Credential{}, false
	}

	return pbkdf2Credential{iterations: iterations, salt: salt, key: key}, true
}

func (c pbkdf2Credential) matches(plaintext string) bool {
	computed := pbkdf2.Key([]byte(plaintext), c.salt, c.iterations, len(c.key), sha256.New)
	return subtle.ConstantTimeCompare(computed, c.key) == 1
}
