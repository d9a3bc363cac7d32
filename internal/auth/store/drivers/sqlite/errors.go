package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neuralsys/fleetdesk/internal/auth/store"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mapConstraint turns UNIQUE and PRIMARY KEY violations into
// store.ErrAlreadyExists and leaves every other error untouched.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}

	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", store.ErrAlreadyExists, se.Error())
		}
		return err
	}

	// Drivers that only surface the message (and test doubles).
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, err.Error())
	}
	return err
}
