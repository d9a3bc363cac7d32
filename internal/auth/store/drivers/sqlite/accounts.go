package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/store"
)

const accountColumns = `id, handle, email, display_name, credential, role, active, created_at`

type accountRow struct {
	ID          int64          `db:"id"`
	Handle      string         `db:"handle"`
	Email       sql.NullString `db:"email"`
	DisplayName string         `db:"display_name"`
	Credential  string         `db:"credential"`
	Role        string         `db:"role"`
	Active      bool           `db:"active"`
	CreatedAt   time.Time      `db:"created_at"`
}

func mapAccount(row accountRow) domain.Account {
	return domain.Account{
		ID:          row.ID,
		Handle:      row.Handle,
		Email:       mapNullString(row.Email),
		DisplayName: row.DisplayName,
		Credential:  row.Credential,
		Role:        domain.ParseRole(row.Role),
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
	}
}

type accountsRepo struct {
	q sqlx.ExtContext
}

func (r *accountsRepo) get(ctx context.Context, where string, arg any) (domain.Account, error) {
	var row accountRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT `+accountColumns+` FROM accounts WHERE `+where+` LIMIT 1`, arg)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r *accountsRepo) GetByHandle(ctx context.Context, handle string) (domain.Account, error) {
	return r.get(ctx, `handle = ?`, domain.NormalizeHandle(handle))
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.get(ctx, `email = ?`, domain.NormalizeEmail(email))
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) (int64, error) {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO accounts (handle, email, display_name, credential, role, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		domain.NormalizeHandle(a.Handle),
		mapStringNull(domain.NormalizeEmail(a.Email)),
		a.DisplayName,
		a.Credential,
		domain.ParseRole(string(a.Role)).String(),
		a.Active,
		createdAt,
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *accountsRepo) UpdateCredential(ctx context.Context, id int64, credential string) error {
	return r.update(ctx, `UPDATE accounts SET credential = ? WHERE id = ?`, credential, id)
}

func (r *accountsRepo) UpdateActive(ctx context.Context, id int64, active bool) error {
	return r.update(ctx, `UPDATE accounts SET active = ? WHERE id = ?`, active, id)
}

func (r *accountsRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	return r.update(ctx, `UPDATE accounts SET role = ? WHERE id = ?`, domain.ParseRole(string(role)).String(), id)
}

func (r *accountsRepo) UpdateProfile(ctx context.Context, id int64, displayName, email string) error {
	return r.update(ctx,
		`UPDATE accounts SET display_name = ?, email = ? WHERE id = ?`,
		displayName, mapStringNull(domain.NormalizeEmail(email)), id,
	)
}

func (r *accountsRepo) Delete(ctx context.Context, id int64) error {
	return r.update(ctx, `DELETE FROM accounts WHERE id = ?`, id)
}

func (r *accountsRepo) List(ctx context.Context) ([]domain.Account, error) {
	var rows []accountRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id ASC`); err != nil {
		return nil, err
	}

	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAccount(row))
	}
	return out, nil
}

func (r *accountsRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM accounts`); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *accountsRepo) CountActiveAdmins(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n,
		`SELECT COUNT(*) FROM accounts WHERE role = ? AND active = 1`, domain.RoleAdmin.String())
	if err != nil {
		return 0, err
	}
	return n, nil
}

// update runs a single-row statement and reports ErrNotFound when nothing matched.
func (r *accountsRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
