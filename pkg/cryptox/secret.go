package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrGenerateSecret reads a base64url secret from path. When the file does
// not exist a new secret of size bytes is generated and written with 0600
// permissions, creating the parent directory if needed.
func LoadOrGenerateSecret(path string, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret size must be positive, got %d", size)
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		secret := make([]byte, size)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		encoded := base64.RawURLEncoding.EncodeToString(secret)
		if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
			return nil, err
		}
		return secret, nil
	case err != nil:
		return nil, err
	}

	secret, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("secret file %s is not base64url: %w", path, err)
	}
	if len(secret) < size {
		return nil, fmt.Errorf("secret file %s holds %d bytes, want at least %d", path, len(secret), size)
	}
	return secret, nil
}
