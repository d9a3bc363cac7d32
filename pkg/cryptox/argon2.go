package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the tunables embedded in an argon2id PHC string.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultArgon2Params follow the OWASP minimum for argon2id.
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   keyLength,
}

// Upper bounds for parameters parsed out of stored values.
const (
	maxArgon2Memory     = 1 << 21 // 2 GiB
	maxArgon2Iterations = 64
)

type argon2Credential struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

// encodeArgon2id generates a PHC-format argon2id string including salt and parameters.
func encodeArgon2id(plaintext string, p Argon2Params) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// parseArgon2id parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func parseArgon2id(stored string) (argon2Credential, bool) {
	parts := strings.Split(stored, "$")
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	if len(parts) != 6 || parts[0] != "" || parts[1] != string(SchemeArgon2id) {
		return argon2Credential{}, false
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return argon2Credential{}, false
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return argon2Credential{}, false
	}
	if p.Memory == 0 || p.Memory > maxArgon2Memory ||
		p.Iterations == 0 || p.Iterations > maxArgon2Iterations ||
		p.Parallelism == 0 {
		return argon2Credential{}, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return argon2Credential{}, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return argon2Credential{}, false
	}
	p.KeyLength = uint32(len(key)) // #nosec G115 - decoded from a short text column

	return argon2Credential{params: p, salt: salt, key: key}, true
}

func (c argon2Credential) matches(plaintext string) bool {
	computed := argon2.IDKey(
		[]byte(plaintext),
		c.salt,
		c.params.Iterations,
		c.params.Memory,
		c.params.Parallelism,
		c.params.KeyLength,
	)
	return subtle.ConstantTimeCompare(computed, c.key) == 1
}
