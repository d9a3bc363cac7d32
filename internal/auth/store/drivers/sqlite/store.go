package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/neuralsys/fleetdesk/internal/auth/store"
	_ "modernc.org/sqlite"
)

// CredentialEncoder is the part of the password codec the legacy import
// needs to tell stored hashes from plaintext and to re-encode the latter.
type CredentialEncoder interface {
	Encode(plaintext string) (string, error)
	Recognizes(stored string) bool
}

type Option func(*Store)

// WithCredentialEncoder sets the encoder used to upgrade plaintext
// credentials found in legacy tables.
func WithCredentialEncoder(enc CredentialEncoder) Option {
	return func(s *Store) { s.encoder = enc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

type Store struct {
	db      *sqlx.DB
	dsn     string
	encoder CredentialEncoder
	logger  *slog.Logger
}

// DSN builds a modernc data source name for a database file with the
// pragmas the service relies on.
func DSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		path,
	)
}

func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := NewStoreWithDB(db, opts...)
	s.dsn = dsn
	return s, nil
}

// NewStoreWithDB wraps an already opened database handle.
func NewStoreWithDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     sqlx.NewDb(db, "sqlite3"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback after a successful commit returns sql.ErrTxDone, which is ignored.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Accounts() store.Accounts           { return &accountsRepo{q: s.db} }
func (s *Store) LegacyImports() store.LegacyImports { return &legacyImportsRepo{q: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
