package fleetdesk_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neuralsys/fleetdesk/internal/auth/app"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
)

/*
 * Helpers for the fleetdesk end-to-end tests. Each test runs the fully wired
 * application in process behind an httptest server and talks to it through
 * the SDK client.
 */

const (
	bootstrapToken = "test-bootstrap-token-12345"
	adminHandle    = "admin"
	adminPassword  = "x123"
)

type testService struct {
	URL string
	Cfg app.Config
}

// testConfig returns a config rooted in a fresh temp directory.
func testConfig(t *testing.T) app.Config {
	t.Helper()
	dir := t.TempDir()
	return app.Config{
		DatabaseFile:         filepath.Join(dir, "fleetdesk.db"),
		PasswordScheme:       "pbkdf2_sha256",
		PasswordIterations:   cryptox.MinPBKDF2Iterations,
		SessionBackend:       app.SessionBackendMemory,
		SessionTTL:           time.Hour,
		SessionSecretFile:    filepath.Join(dir, "session.key"),
		BootstrapToken:       bootstrapToken,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "json",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}
}

// startService runs the application for cfg until the test ends.
func startService(t *testing.T, cfg app.Config) *testService {
	t.Helper()

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = application.Close()
	})

	return &testService{URL: srv.URL, Cfg: cfg}
}

func setupService(t *testing.T) *testService {
	t.Helper()
	return startService(t, testConfig(t))
}

func newClient(t *testing.T, svc *testService) *fleetsdk.Client {
	t.Helper()
	client, err := fleetsdk.NewClient(svc.URL)
	require.NoError(t, err)
	return client
}

// bootstrapAdmin creates the first administrator and logs client in as it.
func bootstrapAdmin(t *testing.T, client *fleetsdk.Client) {
	t.Helper()
	ctx := context.Background()

	resp, err := client.Bootstrap(ctx, bootstrapToken, fleetsdk.BootstrapRequest{
		Handle:          adminHandle,
		DisplayName:     "Administrator",
		Password:        adminPassword,
		PasswordConfirm: adminPassword,
	})
	require.NoError(t, err)
	require.Equal(t, fleetsdk.StateAnonymous, resp.State)

	s, err := client.Login(ctx, adminHandle, adminPassword)
	require.NoError(t, err)
	require.Equal(t, fleetsdk.RoleAdmin, s.Account.Role)
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()

	var apiErr *fleetsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *fleetsdk.APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	if code != "" {
		require.Equal(t, code, apiErr.Code)
	}
}

func requireState(t *testing.T, client *fleetsdk.Client, state string) *fleetsdk.SessionResponse {
	t.Helper()
	s, err := client.Session(context.Background())
	require.NoError(t, err)
	require.Equal(t, state, s.State)
	return s
}

