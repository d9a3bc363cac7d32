package cryptox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "session.key")

	first, err := LoadOrGenerateSecret(path, 32)
	require.NoError(t, err)
	require.Len(t, first, 32)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadOrGenerateSecret(path, 32)
	require.NoError(t, err)
	require.Equal(t, first, second, "secret should be reloaded, not regenerated")
}

func TestLoadOrGenerateSecret_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbled := filepath.Join(dir, "garbled.key")
	require.NoError(t, os.WriteFile(garbled, []byte("not base64 !!"), 0600))
	_, err := LoadOrGenerateSecret(garbled, 32)
	require.Error(t, err)

	short := filepath.Join(dir, "short.key")
	require.NoError(t, os.WriteFile(short, []byte("AAAA"), 0600))
	_, err = LoadOrGenerateSecret(short, 32)
	require.Error(t, err)

	_, err = LoadOrGenerateSecret(filepath.Join(dir, "zero.key"), 0)
	require.Error(t, err)
}
