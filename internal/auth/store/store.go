package store

import (
	"context"
	"errors"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Repositories hang off it as methods so that a Tx exposes the same surface
// and transactions cannot be nested by accident.
type Store interface {
	Accounts() Accounts
	LegacyImports() LegacyImports

	// ApplyMigrations brings the schema to the latest version and imports any
	// pre-migration account tables. It must complete before the first lookup.
	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetByID returns an account by internal id.
	GetByID(ctx context.Context, id int64) (domain.Account, error)

	// GetByHandle matches the normalised handle case-insensitively.
	GetByHandle(ctx context.Context, handle string) (domain.Account, error)

	// GetByEmail matches the normalised email case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// Create inserts a; the new id is returned. Duplicate handle or email
	// yields ErrAlreadyExists.
	Create(ctx context.Context, a domain.Account) (int64, error)

	// UpdateCredential overwrites the stored credential.
	UpdateCredential(ctx context.Context, id int64, credential string) error

	// UpdateActive sets the active flag.
	UpdateActive(ctx context.Context, id int64, active bool) error

	// UpdateRole sets the role.
	UpdateRole(ctx context.Context, id int64, role domain.Role) error

	// UpdateProfile sets display name and email (empty email clears it).
	UpdateProfile(ctx context.Context, id int64, displayName, email string) error

	// Delete removes the account.
	Delete(ctx context.Context, id int64) error

	// List returns every account ordered by id.
	List(ctx context.Context) ([]domain.Account, error)

	// Count returns the number of accounts.
	Count(ctx context.Context) (int, error)

	// CountActiveAdmins returns the number of active accounts with the admin role.
	CountActiveAdmins(ctx context.Context) (int, error)
}

type LegacyImports interface {
	// List returns past imports, oldest first.
	List(ctx context.Context) ([]domain.LegacyImport, error)
}
