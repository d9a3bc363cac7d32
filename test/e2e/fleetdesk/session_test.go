package fleetdesk_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
)

// TestLoginLogoutScenario covers the neo/matrix walk through.
func TestLoginLogoutScenario(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	admin := newClient(t, svc)
	bootstrapAdmin(t, admin)
	ctx := context.Background()

	_, err := admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{Handle: "neo", Password: "matrix"})
	require.NoError(t, err)

	neo := newClient(t, svc)

	s, err := neo.Login(ctx, "neo", "matrix")
	require.NoError(t, err)
	require.Equal(t, fleetsdk.StateAuthenticated, s.State)
	require.Equal(t, "neo", s.Account.Handle)
	require.Equal(t, fleetsdk.RoleUser, s.Account.Role)

	other := newClient(t, svc)
	_, err = other.Login(ctx, "neo", "wrong")
	requireAPIError(t, err, http.StatusUnauthorized, fleetsdk.ErrorCodeInvalidCredentials)

	require.NoError(t, neo.Logout(ctx))
	requireState(t, neo, fleetsdk.StateAwaitingCredentials)
}

func TestLoginByEmailIgnoresCaseAndSpace(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	admin := newClient(t, svc)
	bootstrapAdmin(t, admin)
	ctx := context.Background()

	_, err := admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{
		Handle:   "Joao.Silva",
		Email:    "joao@example.com",
		Password: "abcd",
	})
	require.NoError(t, err)

	for _, login := range []string{" joao.silva ", "JOAO@EXAMPLE.COM"} {
		c := newClient(t, svc)
		s, err := c.Login(ctx, login, "abcd")
		require.NoError(t, err, login)
		require.Equal(t, "joao.silva", s.Account.Handle)
	}
}

func TestRejectionsAreIndistinguishable(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	admin := newClient(t, svc)
	bootstrapAdmin(t, admin)
	ctx := context.Background()

	inactive := false
	_, err := admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{Handle: "trinity", Password: "matrix", Active: &inactive})
	require.NoError(t, err)
	_, err = admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{Handle: "neo", Password: "matrix"})
	require.NoError(t, err)

	var descriptions []string
	for _, tc := range [][2]string{
		{"neo", "wrong"},      // bad password
		{"morpheus", "x"},     // unknown account
		{"trinity", "matrix"}, // inactive
	} {
		_, err := newClient(t, svc).Login(ctx, tc[0], tc[1])
		requireAPIError(t, err, http.StatusUnauthorized, fleetsdk.ErrorCodeInvalidCredentials)

		var apiErr *fleetsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		descriptions = append(descriptions, apiErr.Description)
	}
	require.Equal(t, descriptions[0], descriptions[1])
	require.Equal(t, descriptions[0], descriptions[2])
}

func TestSnapshotIsNotRefreshed(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	admin := newClient(t, svc)
	bootstrapAdmin(t, admin)
	ctx := context.Background()

	_, err := admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{Handle: "neo", Password: "matrix"})
	require.NoError(t, err)

	neo := newClient(t, svc)
	_, err = neo.Login(ctx, "neo", "matrix")
	require.NoError(t, err)

	require.NoError(t, admin.SetRole(ctx, "neo", fleetsdk.RoleAdmin))

	// the live session keeps the role it was opened with
	s := requireState(t, neo, fleetsdk.StateAuthenticated)
	require.Equal(t, fleetsdk.RoleUser, s.Account.Role)

	require.NoError(t, neo.Logout(ctx))
	s, err = neo.Login(ctx, "neo", "matrix")
	require.NoError(t, err)
	require.Equal(t, fleetsdk.RoleAdmin, s.Account.Role)
}

func TestLoginIsRateLimited(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	admin := newClient(t, svc)
	bootstrapAdmin(t, admin)

	client := newClient(t, svc)
	var lastErr error
	for range 6 {
		_, lastErr = client.Login(context.Background(), "neo", "wrong")
	}
	requireAPIError(t, lastErr, http.StatusTooManyRequests, "")
}
