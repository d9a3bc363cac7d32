package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neuralsys/fleetdesk/internal/auth/service"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		DatabaseFile:         filepath.Join(dir, "fleetdesk.db"),
		PasswordScheme:       "pbkdf2_sha256",
		PasswordIterations:   cryptox.MinPBKDF2Iterations,
		SessionBackend:       SessionBackendMemory,
		SessionTTL:           time.Hour,
		SessionSecretFile:    filepath.Join(dir, "keys", "session.key"),
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}
}

func TestNewProvisionsAdminFromEnv(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.BootstrapAdmin = service.EnvAdmin{Handle: "Admin", Password: "x123"}

	application, err := New(cfg)
	require.NoError(t, err)

	empty, err := application.directoryService.IsEmpty(context.Background())
	require.NoError(t, err)
	require.False(t, empty)

	a, err := application.directoryService.Get(context.Background(), "admin")
	require.NoError(t, err)
	require.Equal(t, "admin", a.Role.String())
	require.NoError(t, application.Close())

	// the secret survives a restart and the admin is not created twice
	_, err = os.Stat(cfg.SessionSecretFile)
	require.NoError(t, err)

	application, err = New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	list, err := application.directoryService.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestHandlerServesProbes(t *testing.T) {
	t.Parallel()

	application, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.PasswordScheme = "md5"
	_, err := New(cfg)
	require.ErrorIs(t, err, cryptox.ErrUnknownScheme)

	cfg = testConfig(t)
	cfg.SessionBackend = "memcached"
	_, err = New(cfg)
	require.Error(t, err)
}
