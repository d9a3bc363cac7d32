package domain

import "time"

// FirstAdmin is the input for creating the initial administrator.
type FirstAdmin struct {
	Handle          string
	Email           string
	DisplayName     string
	Password        string
	PasswordConfirm string
}

// LegacyImport records one import of a pre-migration account table.
type LegacyImport struct {
	ID                  int64
	SourceTable         string
	RowsImported        int
	CredentialsUpgraded int
	ImportedAt          time.Time
}
