package service

import (
	"context"
	"testing"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestCreateFirstAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.Bootstrap.CreateFirstAdmin(ctx, domain.FirstAdmin{
		Handle: "admin", Password: "x123", PasswordConfirm: "x124",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.Bootstrap.CreateFirstAdmin(ctx, domain.FirstAdmin{
		Handle: "admin", Password: "x1", PasswordConfirm: "x1",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	ok, err := env.Bootstrap.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	admin, err := env.Bootstrap.CreateFirstAdmin(ctx, domain.FirstAdmin{
		Handle: "Admin", Email: "admin@example.com", DisplayName: "Administrator",
		Password: "x123", PasswordConfirm: "x123",
	})
	require.NoError(t, err)
	require.Equal(t, "admin", admin.Handle)
	require.Equal(t, domain.RoleAdmin, admin.Role)

	ok, err = env.Bootstrap.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = env.Bootstrap.CreateFirstAdmin(ctx, domain.FirstAdmin{
		Handle: "second", Password: "x123", PasswordConfirm: "x123",
	})
	require.ErrorIs(t, err, ErrAlreadyBootstrapped)
}

func TestProvisionFromEnv(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.Bootstrap.ProvisionFromEnv(ctx, EnvAdmin{})
	require.NoError(t, err)
	require.False(t, created, "no handle configured")

	created, err = env.Bootstrap.ProvisionFromEnv(ctx, EnvAdmin{Handle: "admin", Password: "x123", DisplayName: "Admin"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = env.Bootstrap.ProvisionFromEnv(ctx, EnvAdmin{Handle: "other", Password: "x123"})
	require.NoError(t, err)
	require.False(t, created)

	list, err := env.Directory.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "admin", list[0].Handle)
}

func TestCheckToken(t *testing.T) {
	open := &BootstrapService{}
	require.NoError(t, open.CheckToken(""))
	require.NoError(t, open.CheckToken("anything"))

	guarded := &BootstrapService{Token: "s3cret"}
	require.NoError(t, guarded.CheckToken("s3cret"))
	require.ErrorIs(t, guarded.CheckToken(""), ErrBootstrapForbidden)
	require.ErrorIs(t, guarded.CheckToken("s3cre"), ErrBootstrapForbidden)
}
