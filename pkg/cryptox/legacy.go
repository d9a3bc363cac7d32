package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// LegacyDigest returns the unsalted hex SHA-256 of plaintext, the format the
// first deployments stored. New credentials must never use it.
func LegacyDigest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func isLegacyDigest(stored string) bool {
	if len(stored) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}

func verifyLegacy(plaintext, stored string) bool {
	expected := LegacyDigest(plaintext)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(stored))) == 1
}
