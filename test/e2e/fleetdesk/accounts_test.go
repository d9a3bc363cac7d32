package fleetdesk_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
)

func TestAccountAdministration(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	admin := newClient(t, svc)
	bootstrapAdmin(t, admin)
	ctx := context.Background()

	created, err := admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{
		Handle:      "neo",
		Email:       "neo@example.com",
		DisplayName: "Thomas Anderson",
		Password:    "matrix",
	})
	require.NoError(t, err)
	require.Equal(t, "neo", created.Handle)

	t.Run("duplicate handle", func(t *testing.T) {
		_, err := admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{Handle: " NEO ", Password: "matrix"})
		requireAPIError(t, err, http.StatusConflict, fleetsdk.ErrorCodeConflict)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{Handle: "smith", Email: "NEO@example.com", Password: "matrix"})
		requireAPIError(t, err, http.StatusConflict, fleetsdk.ErrorCodeConflict)
	})

	t.Run("profile", func(t *testing.T) {
		name := "Mr. Anderson"
		noEmail := ""
		acc, err := admin.UpdateProfile(ctx, "neo", fleetsdk.UpdateProfileRequest{DisplayName: &name, Email: &noEmail})
		require.NoError(t, err)
		require.Equal(t, name, acc.DisplayName)
		require.Empty(t, acc.Email)
	})

	t.Run("password", func(t *testing.T) {
		err := admin.SetPassword(ctx, "neo", "ab")
		requireAPIError(t, err, http.StatusBadRequest, fleetsdk.ErrorCodeValidation)

		require.NoError(t, admin.SetPassword(ctx, "neo", "abcd"))

		_, err = newClient(t, svc).Login(ctx, "neo", "matrix")
		requireAPIError(t, err, http.StatusUnauthorized, fleetsdk.ErrorCodeInvalidCredentials)
		_, err = newClient(t, svc).Login(ctx, "neo", "abcd")
		require.NoError(t, err)
	})

	t.Run("deactivate", func(t *testing.T) {
		require.NoError(t, admin.SetActive(ctx, "neo", false))

		_, err := newClient(t, svc).Login(ctx, "neo", "abcd")
		requireAPIError(t, err, http.StatusUnauthorized, fleetsdk.ErrorCodeInvalidCredentials)

		acc, err := admin.GetAccount(ctx, "neo")
		require.NoError(t, err)
		require.False(t, acc.Active)
	})

	t.Run("delete", func(t *testing.T) {
		err := admin.DeleteAccount(ctx, adminHandle)
		requireAPIError(t, err, http.StatusConflict, fleetsdk.ErrorCodeConflict)

		require.NoError(t, admin.DeleteAccount(ctx, "neo"))

		_, err = admin.GetAccount(ctx, "neo")
		requireAPIError(t, err, http.StatusNotFound, fleetsdk.ErrorCodeNotFound)

		err = admin.DeleteAccount(ctx, "neo")
		requireAPIError(t, err, http.StatusNotFound, fleetsdk.ErrorCodeNotFound)
	})
}

func TestAccountsRequireAdminSession(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	admin := newClient(t, svc)
	bootstrapAdmin(t, admin)
	ctx := context.Background()

	_, err := newClient(t, svc).ListAccounts(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, fleetsdk.ErrorCodeUnauthorized)

	_, err = admin.CreateAccount(ctx, fleetsdk.CreateAccountRequest{Handle: "neo", Password: "matrix"})
	require.NoError(t, err)

	neo := newClient(t, svc)
	_, err = neo.Login(ctx, "neo", "matrix")
	require.NoError(t, err)

	_, err = neo.ListAccounts(ctx)
	requireAPIError(t, err, http.StatusForbidden, fleetsdk.ErrorCodeForbidden)

	err = neo.SetRole(ctx, "neo", fleetsdk.RoleAdmin)
	requireAPIError(t, err, http.StatusForbidden, fleetsdk.ErrorCodeForbidden)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	svc := setupService(t)
	client := newClient(t, svc)
	ctx := context.Background()

	live, err := client.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.Readiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Sessions)
}
