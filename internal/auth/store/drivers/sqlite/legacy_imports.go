package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/neuralsys/fleetdesk/internal/auth/domain"
)

type legacyImportRow struct {
	ID                  int64     `db:"id"`
	SourceTable         string    `db:"source_table"`
	RowsImported        int       `db:"rows_imported"`
	CredentialsUpgraded int       `db:"credentials_upgraded"`
	ImportedAt          time.Time `db:"imported_at"`
}

type legacyImportsRepo struct {
	q sqlx.ExtContext
}

func (r *legacyImportsRepo) List(ctx context.Context) ([]domain.LegacyImport, error) {
	var rows []legacyImportRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT id, source_table, rows_imported, credentials_upgraded, imported_at
		 FROM legacy_imports ORDER BY id ASC`); err != nil {
		return nil, err
	}

	out := make([]domain.LegacyImport, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.LegacyImport{
			ID:                  row.ID,
			SourceTable:         row.SourceTable,
			RowsImported:        row.RowsImported,
			CredentialsUpgraded: row.CredentialsUpgraded,
			ImportedAt:          row.ImportedAt,
		})
	}
	return out, nil
}

func (r *legacyImportsRepo) record(ctx context.Context, table string, rows, upgraded int) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO legacy_imports (source_table, rows_imported, credentials_upgraded, imported_at)
		 VALUES (?, ?, ?, ?)`,
		table, rows, upgraded, time.Now().UTC(),
	)
	return err
}
