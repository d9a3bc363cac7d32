package service

import (
	"errors"
	"fmt"

	"github.com/neuralsys/fleetdesk/internal/auth/store"
)

var (
	ErrNotFound            = errors.New("account not found")
	ErrInactive            = errors.New("account is inactive")
	ErrConflict            = errors.New("conflict")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStorage             = errors.New("storage failure")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAlreadyBootstrapped = errors.New("system already bootstrapped")
	ErrBootstrapForbidden  = errors.New("unauthorized bootstrap attempt")

	// ErrLastAdmin is a conflict: the change would leave no active admin.
	ErrLastAdmin = fmt.Errorf("%w: at least one active admin must remain", ErrConflict)
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// isServiceErr reports whether err already carries one of the sentinels above.
func isServiceErr(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInactive, ErrConflict, ErrInvalidInput, ErrStorage,
		ErrInvalidCredentials, ErrAlreadyBootstrapped, ErrBootstrapForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// mapStoreErr translates store sentinels into service errors. Anything else
// is a storage failure.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}
