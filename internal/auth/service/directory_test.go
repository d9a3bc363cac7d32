package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/store/drivers/sqlite"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestFindByLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.Directory.Create(ctx, domain.NewAccount{
		Handle: "Joao.Silva", Email: "Joao@Example.com", Password: "senha123",
	})
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		wantErr    error
	}{
		{"handle with whitespace", " joao.silva ", nil},
		{"handle upper case", "JOAO.SILVA", nil},
		{"email", "joao@example.com", nil},
		{"email mixed case", " JOAO@example.COM", nil},
		{"empty", "   ", ErrNotFound},
		{"unknown", "maria", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := env.Directory.FindByLogin(ctx, tt.identifier)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "joao.silva", a.Handle)
		})
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, err := env.Directory.Create(ctx, domain.NewAccount{
		Handle:      "  Trinity ",
		Email:       "Trinity@Example.com",
		DisplayName: " Trinity ",
		Password:    "follow",
		Role:        "supervisor",
	})
	require.NoError(t, err)
	require.Equal(t, "trinity", a.Handle)
	require.Equal(t, "trinity@example.com", a.Email)
	require.Equal(t, "Trinity", a.DisplayName)
	require.Equal(t, domain.RoleUser, a.Role)
	require.True(t, a.Active, "zero NewAccount.Inactive creates an enabled account")
	require.False(t, a.CreatedAt.IsZero())
	require.NotEqual(t, "follow", a.Credential)
	require.True(t, env.Codec.Verify("follow", a.Credential))
	require.False(t, env.Codec.NeedsUpgrade(a.Credential))

	tests := []struct {
		name    string
		in      domain.NewAccount
		wantErr error
	}{
		{"duplicate handle by case", domain.NewAccount{Handle: "TRINITY", Password: "abcd"}, ErrConflict},
		{"duplicate handle by whitespace", domain.NewAccount{Handle: " trinity\t", Password: "abcd"}, ErrConflict},
		{"duplicate email", domain.NewAccount{Handle: "other", Email: "trinity@EXAMPLE.com", Password: "abcd"}, ErrConflict},
		{"empty handle", domain.NewAccount{Handle: "  ", Password: "abcd"}, ErrInvalidInput},
		{"short password", domain.NewAccount{Handle: "tank", Password: "abc"}, ErrInvalidInput},
		{"long password", domain.NewAccount{Handle: "tank", Password: strings.Repeat("a", MaxPasswordLength+1)}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Directory.Create(ctx, tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	list, err := env.Directory.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	disabled, err := env.Directory.Create(ctx, domain.NewAccount{Handle: "cypher", Password: "steak", Inactive: true})
	require.NoError(t, err)
	require.False(t, disabled.Active)
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedAccount(t, "neo", cryptox.LegacyDigest("matrix"), domain.RoleUser, true)

	require.ErrorIs(t, env.Directory.SetPassword(ctx, "neo", "ab"), ErrInvalidInput)
	require.ErrorIs(t, env.Directory.SetPassword(ctx, "neo", strings.Repeat("x", MaxPasswordLength+1)), ErrInvalidInput)
	require.NoError(t, env.Directory.SetPassword(ctx, "neo", strings.Repeat("é", MaxPasswordLength)))
	require.ErrorIs(t, env.Directory.SetPassword(ctx, "ghost", "abcd"), ErrNotFound)
	require.NoError(t, env.Directory.SetPassword(ctx, "neo", "abcd"))

	a, err := env.Directory.FindByLogin(ctx, "neo")
	require.NoError(t, err)
	require.True(t, env.Codec.Verify("abcd", a.Credential))
	require.False(t, env.Codec.Verify("matrix", a.Credential))

	_, err = env.Directory.Authenticate(ctx, "neo", "matrix")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetActiveAndRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedAccount(t, "morpheus", cryptox.LegacyDigest("zion"), domain.RoleAdmin, true)
	env.seedAccount(t, "neo", cryptox.LegacyDigest("matrix"), domain.RoleUser, true)

	require.NoError(t, env.Directory.SetRole(ctx, "NEO", domain.RoleAdmin))
	require.NoError(t, env.Directory.SetActive(ctx, "neo", false))

	got, err := env.Directory.Get(ctx, "neo")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.False(t, got.Active)

	require.NoError(t, env.Directory.SetRole(ctx, "neo", "root"))
	got, err = env.Directory.Get(ctx, "neo")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, got.Role)

	require.ErrorIs(t, env.Directory.SetActive(ctx, "ghost", true), ErrNotFound)
	require.ErrorIs(t, env.Directory.SetRole(ctx, "ghost", domain.RoleAdmin), ErrNotFound)
}

func TestUpdateProfileAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.Directory.Create(ctx, domain.NewAccount{Handle: "neo", Email: "neo@example.com", Password: "matrix"})
	require.NoError(t, err)
	_, err = env.Directory.Create(ctx, domain.NewAccount{Handle: "tank", Password: "operator"})
	require.NoError(t, err)

	name := "Thomas Anderson"
	got, err := env.Directory.UpdateProfile(ctx, "neo", domain.ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	require.Equal(t, name, got.DisplayName)
	require.Equal(t, "neo@example.com", got.Email)

	taken := "NEO@example.com"
	_, err = env.Directory.UpdateProfile(ctx, "tank", domain.ProfileUpdate{Email: &taken})
	require.ErrorIs(t, err, ErrConflict)

	cleared := ""
	got, err = env.Directory.UpdateProfile(ctx, "neo", domain.ProfileUpdate{Email: &cleared})
	require.NoError(t, err)
	require.Empty(t, got.Email)

	require.NoError(t, env.Directory.Delete(ctx, "tank"))
	require.ErrorIs(t, env.Directory.Delete(ctx, "tank"), ErrNotFound)
}

func TestLastActiveAdminIsKept(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.Bootstrap.CreateFirstAdmin(ctx, domain.FirstAdmin{
		Handle: "admin", Password: "x123", PasswordConfirm: "x123",
	})
	require.NoError(t, err)
	env.seedAccount(t, "neo", cryptox.LegacyDigest("matrix"), domain.RoleUser, true)

	tests := []struct {
		name   string
		change func() error
	}{
		{"demote", func() error { return env.Directory.SetRole(ctx, "admin", domain.RoleUser) }},
		{"demote to unknown role", func() error { return env.Directory.SetRole(ctx, "ADMIN", "root") }},
		{"deactivate", func() error { return env.Directory.SetActive(ctx, "admin", false) }},
		{"delete", func() error { return env.Directory.Delete(ctx, "admin") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change()
			require.ErrorIs(t, err, ErrLastAdmin)
			require.ErrorIs(t, err, ErrConflict)

			n, err := env.Store.Accounts().CountActiveAdmins(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, n)
		})
	}

	// changes that keep the admin standing are fine
	require.NoError(t, env.Directory.SetRole(ctx, "admin", domain.RoleAdmin))
	require.NoError(t, env.Directory.SetActive(ctx, "admin", true))

	// with a second active admin the first may step down
	require.NoError(t, env.Directory.SetRole(ctx, "neo", domain.RoleAdmin))
	require.NoError(t, env.Directory.SetRole(ctx, "admin", domain.RoleUser))
	require.ErrorIs(t, env.Directory.SetActive(ctx, "neo", false), ErrLastAdmin)

	// an inactive admin is not counted and may be removed
	require.NoError(t, env.Directory.SetRole(ctx, "admin", domain.RoleAdmin))
	require.NoError(t, env.Directory.SetActive(ctx, "admin", false))
	require.NoError(t, env.Directory.Delete(ctx, "admin"))

	state, err := env.Gate.State(ctx, "")
	require.NoError(t, err)
	require.Equal(t, StateAwaitingCreds, state)
}

func TestAuthenticate_UpgradesLegacyCredential(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	legacy := cryptox.LegacyDigest("matrix")
	env.seedAccount(t, "neo", legacy, domain.RoleUser, true)

	a, err := env.Directory.Authenticate(ctx, "neo", "matrix")
	require.NoError(t, err)

	stored, err := env.Directory.FindByLogin(ctx, "neo")
	require.NoError(t, err)
	require.NotEqual(t, legacy, stored.Credential)
	require.Equal(t, a.Credential, stored.Credential)
	scheme, ok := cryptox.IdentifyScheme(stored.Credential)
	require.True(t, ok)
	require.Equal(t, cryptox.SchemePBKDF2SHA256, scheme)

	_, err = env.Directory.Authenticate(ctx, "neo", "matrix")
	require.NoError(t, err)

	again, err := env.Directory.FindByLogin(ctx, "neo")
	require.NoError(t, err)
	require.Equal(t, stored.Credential, again.Credential, "second login must not rewrite the credential")
}

func TestAuthenticate_Failures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	cred, err := env.Codec.Encode("matrix")
	require.NoError(t, err)
	env.seedAccount(t, "neo", cred, domain.RoleUser, true)
	env.seedAccount(t, "cypher", cred, domain.RoleUser, false)
	env.seedAccount(t, "plain", "matrix", domain.RoleUser, true)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{"unknown account", "smith", "matrix", ErrNotFound},
		{"wrong password", "neo", "wrong", ErrInvalidCredentials},
		{"inactive account", "cypher", "matrix", ErrInactive},
		{"plaintext stored value never matches", "plain", "matrix", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Directory.Authenticate(ctx, tt.identifier, tt.password)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// countingCodec records how often Verify runs.
type countingCodec struct {
	PasswordCodec
	verifies int
}

func (c *countingCodec) Verify(plaintext, stored string) bool {
	c.verifies++
	return c.PasswordCodec.Verify(plaintext, stored)
}

func TestAuthenticate_EveryRejectionVerifies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	cred, err := env.Codec.Encode("matrix")
	require.NoError(t, err)
	env.seedAccount(t, "neo", cred, domain.RoleUser, true)
	env.seedAccount(t, "cypher", cred, domain.RoleUser, false)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{"unknown account", "smith", "matrix", ErrNotFound},
		{"wrong password", "neo", "wrong", ErrInvalidCredentials},
		{"inactive with right password", "cypher", "matrix", ErrInactive},
		{"inactive with wrong password", "cypher", "wrong", ErrInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := &countingCodec{PasswordCodec: env.Codec}
			dir := &DirectoryService{Store: env.Store, Codec: codec}

			_, err := dir.Authenticate(ctx, tt.identifier, tt.password)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, 1, codec.verifies)
		})
	}
}

func TestDirectory_StorageFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	boom := errors.New("database is locked")
	mock.ExpectQuery("SELECT COUNT").WillReturnError(boom)

	dir := &DirectoryService{Store: sqlite.NewStoreWithDB(db), Codec: cryptox.DefaultPasswordCodec()}
	_, err = dir.IsEmpty(context.Background())
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
