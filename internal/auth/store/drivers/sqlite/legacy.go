package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/neuralsys/fleetdesk/internal/auth/domain"
)

var ErrNoCredentialEncoder = errors.New("sqlite: legacy rows need re-encoding but no credential encoder is configured")

// Account tables written by deployments that predate the versioned schema.
var legacyAccountTables = []string{"usuarios", "users"}

// Staging tables an interrupted rebuild can leave behind.
var staleStagingTables = []string{"usuarios_new", "users_new", "accounts_import"}

// Known legacy column names per canonical field, in priority order.
var (
	legacyHandleColumns  = []string{"username", "login"}
	legacyEmailColumns   = []string{"email"}
	legacyNameColumns    = []string{"nome", "name"}
	legacyRoleColumns    = []string{"role", "papel"}
	legacyActiveColumns  = []string{"active", "ativo"}
	legacyCreatedColumns = []string{"created_at", "criado_em"}
	legacyHashColumns    = []string{"senha_hash", "hash_senha", "password_hash"}
	legacyPlainColumns   = []string{"senha", "password"}
)

type legacyRow struct {
	ID        int64  `db:"legacy_id"`
	Handle    string `db:"handle"`
	Email     string `db:"email"`
	Name      string `db:"display_name"`
	Role      string `db:"role"`
	Active    string `db:"active"`
	CreatedAt string `db:"created_at"`
	Hash1     string `db:"hash1"`
	Hash2     string `db:"hash2"`
	Hash3     string `db:"hash3"`
	Plain1    string `db:"plain1"`
	Plain2    string `db:"plain2"`
}

// importLegacy copies rows from legacy account tables into accounts and
// drops the source tables, all in one transaction. Once a table has been
// imported it no longer exists, so later runs find nothing to do.
func (m *Store) importLegacy(ctx context.Context) error {
	present, err := m.presentTables(ctx, append(slices.Clone(legacyAccountTables), staleStagingTables...))
	if err != nil {
		return err
	}
	if len(present) == 0 {
		return nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range staleStagingTables {
		if !slices.Contains(present, table) {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)); err != nil {
			return fmt.Errorf("drop stale table %s: %w", table, err)
		}
		m.logger.Warn("dropped leftover staging table", "table", table)
	}

	for _, table := range legacyAccountTables {
		if !slices.Contains(present, table) {
			continue
		}
		if err := m.importLegacyTable(ctx, tx, table); err != nil {
			return fmt.Errorf("import legacy table %s: %w", table, err)
		}
	}

	return tx.Commit()
}

func (m *Store) presentTables(ctx context.Context, names []string) ([]string, error) {
	query, args, err := sqlx.In(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (?) ORDER BY name`, names)
	if err != nil {
		return nil, err
	}

	var present []string
	if err := m.db.SelectContext(ctx, &present, query, args...); err != nil {
		return nil, err
	}
	return present, nil
}

func (m *Store) importLegacyTable(ctx context.Context, tx *sqlx.Tx, table string) error {
	var columns []string
	if err := tx.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info(?)`, table); err != nil {
		return err
	}

	var rows []legacyRow
	if err := tx.SelectContext(ctx, &rows, legacySelect(table, columns)); err != nil {
		return err
	}

	var before int
	if err := tx.GetContext(ctx, &before, `SELECT COUNT(*) FROM accounts`); err != nil {
		return err
	}
	handles, emails, err := takenIdentities(ctx, tx)
	if err != nil {
		return err
	}
	keepIDs := before == 0

	upgraded := 0
	for _, r := range rows {
		credential, reencoded, err := m.legacyCredential(r)
		if err != nil {
			return fmt.Errorf("row %d: %w", r.ID, err)
		}
		if reencoded {
			upgraded++
		}

		handle := legacyHandle(r, handles)
		handles[handle] = struct{}{}

		email := domain.NormalizeEmail(r.Email)
		if _, taken := emails[email]; taken && email != "" {
			m.logger.Warn("legacy email already in use, importing without it",
				"table", table, "legacy_id", r.ID, "handle", handle)
			email = ""
		}
		if email != "" {
			emails[email] = struct{}{}
		}

		id := sql.NullInt64{Int64: r.ID, Valid: keepIDs}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, handle, email, display_name, credential, role, active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			handle,
			mapStringNull(email),
			strings.TrimSpace(r.Name),
			credential,
			domain.ParseRole(r.Role).String(),
			legacyActive(r.Active),
			r.CreatedAt,
		); err != nil {
			return fmt.Errorf("row %d: %w", r.ID, err)
		}
	}

	var after int
	if err := tx.GetContext(ctx, &after, `SELECT COUNT(*) FROM accounts`); err != nil {
		return err
	}
	if after-before != len(rows) {
		return fmt.Errorf("copied %d of %d rows", after-before, len(rows))
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %q`, table)); err != nil {
		return err
	}
	if err := (&legacyImportsRepo{q: tx}).record(ctx, table, len(rows), upgraded); err != nil {
		return err
	}

	m.logger.Info("imported legacy account table",
		"table", table,
		"rows", len(rows),
		"upgraded", upgraded,
	)
	return nil
}

// legacySelect projects whatever columns the legacy table has onto the
// fixed legacyRow shape; missing columns read as empty strings.
func legacySelect(table string, columns []string) string {
	pick := func(candidates []string) string {
		for _, c := range candidates {
			if slices.ContainsFunc(columns, func(have string) bool { return strings.EqualFold(have, c) }) {
				return c
			}
		}
		return ""
	}
	text := func(col string) string {
		if col == "" {
			return `''`
		}
		return fmt.Sprintf(`COALESCE(CAST(%q AS TEXT), '')`, col)
	}
	nth := func(candidates []string, i int) string {
		var found []string
		for _, c := range candidates {
			if col := pick([]string{c}); col != "" {
				found = append(found, col)
			}
		}
		if i < len(found) {
			return found[i]
		}
		return ""
	}

	created := `datetime('now')`
	if col := pick(legacyCreatedColumns); col != "" {
		created = fmt.Sprintf(`COALESCE(datetime(%q), datetime('now'))`, col)
	}

	return fmt.Sprintf(`SELECT rowid AS legacy_id,
		%s AS handle, %s AS email, %s AS display_name, %s AS role, %s AS active, %s AS created_at,
		%s AS hash1, %s AS hash2, %s AS hash3, %s AS plain1, %s AS plain2
		FROM %q ORDER BY rowid`,
		text(pick(legacyHandleColumns)),
		text(pick(legacyEmailColumns)),
		text(pick(legacyNameColumns)),
		text(pick(legacyRoleColumns)),
		text(pick(legacyActiveColumns)),
		created,
		text(nth(legacyHashColumns, 0)),
		text(nth(legacyHashColumns, 1)),
		text(nth(legacyHashColumns, 2)),
		text(nth(legacyPlainColumns, 0)),
		text(nth(legacyPlainColumns, 1)),
		table,
	)
}

// legacyCredential prefers a recognised hash; otherwise the first non-empty
// value is treated as plaintext and re-encoded. The bool reports re-encoding.
func (m *Store) legacyCredential(r legacyRow) (string, bool, error) {
	hashes := []string{r.Hash1, r.Hash2, r.Hash3}
	if m.encoder != nil {
		for _, h := range hashes {
			if h = strings.TrimSpace(h); h != "" && m.encoder.Recognizes(h) {
				return h, false, nil
			}
		}
	}

	for _, candidate := range append([]string{r.Plain1, r.Plain2}, hashes...) {
		if candidate == "" {
			continue
		}
		if m.encoder == nil {
			return "", false, ErrNoCredentialEncoder
		}
		encoded, err := m.encoder.Encode(candidate)
		if err != nil {
			return "", false, err
		}
		return encoded, true, nil
	}
	return "", false, nil
}

func legacyHandle(r legacyRow, taken map[string]struct{}) string {
	handle := domain.NormalizeHandle(r.Handle)
	if handle == "" {
		handle = domain.NormalizeEmail(r.Email)
	}
	if handle == "" {
		handle = fmt.Sprintf("user-%d", r.ID)
	}

	candidate := handle
	for n := 0; ; n++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		if n == 0 {
			candidate = fmt.Sprintf("%s-%d", handle, r.ID)
		} else {
			candidate = fmt.Sprintf("%s-%d-%d", handle, r.ID, n)
		}
	}
}

func legacyActive(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "f", "no", "n", "nao", "não", "inativo":
		return false
	default:
		return true
	}
}

func takenIdentities(ctx context.Context, tx *sqlx.Tx) (map[string]struct{}, map[string]struct{}, error) {
	var rows []struct {
		Handle string         `db:"handle"`
		Email  sql.NullString `db:"email"`
	}
	if err := tx.SelectContext(ctx, &rows, `SELECT handle, email FROM accounts`); err != nil {
		return nil, nil, err
	}

	handles := make(map[string]struct{}, len(rows))
	emails := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		handles[domain.NormalizeHandle(r.Handle)] = struct{}{}
		if r.Email.Valid {
			emails[domain.NormalizeEmail(r.Email.String)] = struct{}{}
		}
	}
	return handles, emails, nil
}
