package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/sessions"
	"github.com/neuralsys/fleetdesk/internal/auth/store/drivers/sqlite"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	Store     *sqlite.Store
	Codec     *cryptox.PasswordCodec
	Directory *DirectoryService
	Bootstrap *BootstrapService
	Sessions  *sessions.MemoryStore
	Gate      *SessionGate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := cryptox.NewPasswordCodec("pbkdf2_sha256", cryptox.MinPBKDF2Iterations)
	require.NoError(t, err)

	st, err := sqlite.NewStore(
		sqlite.DSN(filepath.Join(t.TempDir(), "test.db")),
		sqlite.WithCredentialEncoder(codec),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	dir := &DirectoryService{Store: st, Codec: codec}
	boot := &BootstrapService{Directory: dir}
	mem := sessions.NewMemoryStore()

	return &testEnv{
		Store:     st,
		Codec:     codec,
		Directory: dir,
		Bootstrap: boot,
		Sessions:  mem,
		Gate:      &SessionGate{Directory: dir, Bootstrap: boot, Sessions: mem},
	}
}

// seedAccount inserts an account with a pre-encoded credential, bypassing
// Create so tests can plant legacy digests.
func (e *testEnv) seedAccount(t *testing.T, handle, credential string, role domain.Role, active bool) domain.Account {
	t.Helper()
	ctx := context.Background()

	id, err := e.Store.Accounts().Create(ctx, domain.Account{
		Handle:      handle,
		DisplayName: handle,
		Credential:  credential,
		Role:        role,
		Active:      active,
	})
	require.NoError(t, err)

	a, err := e.Store.Accounts().GetByID(ctx, id)
	require.NoError(t, err)
	return a
}
