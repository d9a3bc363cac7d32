package fleetdesk_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/neuralsys/fleetdesk/internal/auth/app"
	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

// TestSessionsSharedThroughRedis runs two instances over one database and
// one redis; a session opened on one is honoured by the other.
func TestSessionsSharedThroughRedis(t *testing.T) {
	addr := startRedis(t)

	cfg := testConfig(t)
	cfg.SessionBackend = app.SessionBackendRedis
	cfg.RedisAddr = addr
	cfg.BootstrapAdmin.Handle = "admin"
	cfg.BootstrapAdmin.Password = "x123"

	a := startService(t, cfg)
	b := startService(t, cfg)
	ctx := context.Background()

	onA := newClient(t, a)
	_, err := onA.Login(ctx, "admin", "x123")
	require.NoError(t, err)

	// carry the cookie over by hand; the jar keys on host, not port
	urlA, err := url.Parse(a.URL)
	require.NoError(t, err)
	urlB, err := url.Parse(b.URL)
	require.NoError(t, err)

	onB := newClient(t, b)
	onB.HTTPClient.Jar.SetCookies(urlB, onA.HTTPClient.Jar.Cookies(urlA))

	s := requireState(t, onB, fleetsdk.StateAuthenticated)
	require.Equal(t, "admin", s.Account.Handle)

	require.NoError(t, onB.Logout(ctx))

	requireState(t, onA, fleetsdk.StateAwaitingCredentials)
}
