package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/store"
	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

// Password length bounds, in runes, for Create and SetPassword.
const (
	MinPasswordLength = 4
	MaxPasswordLength = 128
)

// PasswordCodec encodes and verifies stored credentials.
type PasswordCodec interface {
	Encode(plaintext string) (string, error)
	Verify(plaintext, stored string) bool
	NeedsUpgrade(stored string) bool
}

// DirectoryService is the user directory: lookup, creation and mutation of
// accounts, plus credential checks.
type DirectoryService struct {
	Store store.Store
	Codec PasswordCodec

	dummyOnce sync.Once
	dummy     string
}

// FindByLogin matches identifier against handles first and then emails,
// ignoring case and surrounding whitespace.
func (s *DirectoryService) FindByLogin(ctx context.Context, identifier string) (domain.Account, error) {
	return findByLogin(ctx, s.Store, identifier)
}

func findByLogin(ctx context.Context, st store.Store, identifier string) (domain.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.Account{}, ErrNotFound
	}

	a, err := st.Accounts().GetByHandle(ctx, identifier)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, mapStoreErr(err)
	}

	a, err = st.Accounts().GetByEmail(ctx, identifier)
	if err != nil {
		return domain.Account{}, mapStoreErr(err)
	}
	return a, nil
}

func (s *DirectoryService) Create(ctx context.Context, in domain.NewAccount) (domain.Account, error) {
	return s.create(ctx, s.Store, in)
}

// create runs against st so the bootstrap flow can use it inside a
// transaction.
func (s *DirectoryService) create(ctx context.Context, st store.Store, in domain.NewAccount) (domain.Account, error) {
	handle := domain.NormalizeHandle(in.Handle)
	email := domain.NormalizeEmail(in.Email)

	if handle == "" {
		return domain.Account{}, invalidInput("handle is required")
	}
	if err := checkPassword(in.Password); err != nil {
		return domain.Account{}, err
	}

	if _, err := st.Accounts().GetByHandle(ctx, handle); err == nil {
		return domain.Account{}, fmt.Errorf("%w: handle %q already in use", ErrConflict, handle)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, mapStoreErr(err)
	}
	if email != "" {
		if _, err := st.Accounts().GetByEmail(ctx, email); err == nil {
			return domain.Account{}, fmt.Errorf("%w: email already in use", ErrConflict)
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, mapStoreErr(err)
		}
	}

	credential, err := s.Codec.Encode(in.Password)
	if err != nil {
		return domain.Account{}, err
	}

	id, err := st.Accounts().Create(ctx, domain.Account{
		Handle:      handle,
		Email:       email,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Credential:  credential,
		Role:        domain.ParseRole(string(in.Role)),
		Active:      !in.Inactive,
	})
	if err != nil {
		return domain.Account{}, mapStoreErr(err)
	}

	a, err := st.Accounts().GetByID(ctx, id)
	if err != nil {
		return domain.Account{}, mapStoreErr(err)
	}

	slogx.FromContext(ctx).Info("account created",
		slog.String("handle", a.Handle),
		slog.String("role", a.Role.String()),
	)
	return a, nil
}

func (s *DirectoryService) SetPassword(ctx context.Context, handle, plaintext string) error {
	if err := checkPassword(plaintext); err != nil {
		return err
	}

	a, err := s.get(ctx, handle)
	if err != nil {
		return err
	}

	credential, err := s.Codec.Encode(plaintext)
	if err != nil {
		return err
	}
	return mapStoreErr(s.Store.Accounts().UpdateCredential(ctx, a.ID, credential))
}

// SetActive enables or disables an account. Disabling the last active admin
// fails with ErrLastAdmin.
func (s *DirectoryService) SetActive(ctx context.Context, handle string, active bool) error {
	return s.updateKeepingAdmin(ctx, handle, !active, func(tx store.Tx, a domain.Account) error {
		return tx.Accounts().UpdateActive(ctx, a.ID, active)
	})
}

// SetRole stores role after coercing unknown values to RoleUser. Demoting
// the last active admin fails with ErrLastAdmin.
func (s *DirectoryService) SetRole(ctx context.Context, handle string, role domain.Role) error {
	role = domain.ParseRole(string(role))
	return s.updateKeepingAdmin(ctx, handle, role != domain.RoleAdmin, func(tx store.Tx, a domain.Account) error {
		return tx.Accounts().UpdateRole(ctx, a.ID, role)
	})
}

// UpdateProfile applies the non-nil fields of upd.
func (s *DirectoryService) UpdateProfile(ctx context.Context, handle string, upd domain.ProfileUpdate) (domain.AccountSummary, error) {
	a, err := s.get(ctx, handle)
	if err != nil {
		return domain.AccountSummary{}, err
	}

	displayName, email := a.DisplayName, a.Email
	if upd.DisplayName != nil {
		displayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.Email != nil {
		email = domain.NormalizeEmail(*upd.Email)
		if email != "" && email != a.Email {
			other, err := s.Store.Accounts().GetByEmail(ctx, email)
			switch {
			case err == nil && other.ID != a.ID:
				return domain.AccountSummary{}, fmt.Errorf("%w: email already in use", ErrConflict)
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return domain.AccountSummary{}, mapStoreErr(err)
			}
		}
	}

	if err := s.Store.Accounts().UpdateProfile(ctx, a.ID, displayName, email); err != nil {
		return domain.AccountSummary{}, mapStoreErr(err)
	}

	a.DisplayName, a.Email = displayName, email
	return a.Summary(), nil
}

// Delete removes an account. Deleting the last active admin fails with
// ErrLastAdmin.
func (s *DirectoryService) Delete(ctx context.Context, handle string) error {
	return s.updateKeepingAdmin(ctx, handle, true, func(tx store.Tx, a domain.Account) error {
		return tx.Accounts().Delete(ctx, a.ID)
	})
}

// updateKeepingAdmin applies fn to the account named by handle. When
// revokesAdmin is set and the account is an active admin, fn only runs if
// another active admin exists. The check and the write share a transaction.
func (s *DirectoryService) updateKeepingAdmin(
	ctx context.Context,
	handle string,
	revokesAdmin bool,
	fn func(tx store.Tx, a domain.Account) error,
) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := getByHandle(ctx, tx, handle)
		if err != nil {
			return err
		}

		if revokesAdmin && a.Active && a.Role == domain.RoleAdmin {
			n, err := tx.Accounts().CountActiveAdmins(ctx)
			if err != nil {
				return mapStoreErr(err)
			}
			if n <= 1 {
				return ErrLastAdmin
			}
		}

		return mapStoreErr(fn(tx, a))
	})
	if err != nil && !isServiceErr(err) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return err
}

func (s *DirectoryService) Get(ctx context.Context, handle string) (domain.AccountSummary, error) {
	a, err := s.get(ctx, handle)
	if err != nil {
		return domain.AccountSummary{}, err
	}
	return a.Summary(), nil
}

// List returns every account in id order, without credentials.
func (s *DirectoryService) List(ctx context.Context) ([]domain.AccountSummary, error) {
	accounts, err := s.Store.Accounts().List(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	out := make([]domain.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Summary())
	}
	return out, nil
}

func (s *DirectoryService) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Store.Accounts().Count(ctx)
	if err != nil {
		return false, mapStoreErr(err)
	}
	return n == 0, nil
}

// Authenticate checks plaintext against the account identifier resolves to.
// It returns ErrNotFound, ErrInactive or ErrInvalidCredentials on failure;
// callers facing users must collapse these into one answer.
//
// A verified credential in an outdated encoding is rewritten with the
// current one. Failing to store the rewrite does not fail the login.
func (s *DirectoryService) Authenticate(ctx context.Context, identifier, plaintext string) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	a, err := s.FindByLogin(ctx, identifier)
	if errors.Is(err, ErrNotFound) {
		s.Codec.Verify(plaintext, s.dummyCredential())
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}

	// Every outcome runs exactly one Verify.
	verified := s.Codec.Verify(plaintext, a.Credential)
	if !a.Active {
		return domain.Account{}, ErrInactive
	}
	if !verified {
		return domain.Account{}, ErrInvalidCredentials
	}

	if s.Codec.NeedsUpgrade(a.Credential) {
		credential, err := s.Codec.Encode(plaintext)
		if err == nil {
			err = s.Store.Accounts().UpdateCredential(ctx, a.ID, credential)
		}
		if err != nil {
			log.Warn("failed to upgrade credential", slog.String("handle", a.Handle), slog.Any("error", err))
		} else {
			a.Credential = credential
			log.Info("credential upgraded", slog.String("handle", a.Handle))
		}
	}

	return a, nil
}

func (s *DirectoryService) get(ctx context.Context, handle string) (domain.Account, error) {
	return getByHandle(ctx, s.Store, handle)
}

func getByHandle(ctx context.Context, st store.Store, handle string) (domain.Account, error) {
	handle = domain.NormalizeHandle(handle)
	if handle == "" {
		return domain.Account{}, ErrNotFound
	}
	a, err := st.Accounts().GetByHandle(ctx, handle)
	if err != nil {
		return domain.Account{}, mapStoreErr(err)
	}
	return a, nil
}

// dummyCredential is verified against when no account matched so that
// unknown logins cost as much as wrong passwords.
func (s *DirectoryService) dummyCredential() string {
	s.dummyOnce.Do(func() {
		s.dummy, _ = s.Codec.Encode("fleetdesk-timing-equaliser")
	})
	return s.dummy
}

func checkPassword(plaintext string) error {
	switch n := utf8.RuneCountInString(plaintext); {
	case n < MinPasswordLength:
		return invalidInput(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case n > MaxPasswordLength:
		return invalidInput(fmt.Sprintf("password must be at most %d characters", MaxPasswordLength))
	}
	return nil
}
