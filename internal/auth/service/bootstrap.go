package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/store"
	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

type BootstrapService struct {
	Directory *DirectoryService
	Token     string // Optional pre-shared token for the HTTP bootstrap endpoint
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Directory.IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// CheckToken returns ErrBootstrapForbidden unless token matches the
// configured one. Any token passes when none is configured.
func (s *BootstrapService) CheckToken(token string) error {
	if s.Token == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		return ErrBootstrapForbidden
	}
	return nil
}

// CreateFirstAdmin creates an active admin account. It succeeds only while
// the directory is empty; the count and the insert share one transaction.
func (s *BootstrapService) CreateFirstAdmin(ctx context.Context, in domain.FirstAdmin) (domain.AccountSummary, error) {
	l := slogx.FromContext(ctx)

	if in.Password != in.PasswordConfirm {
		return domain.AccountSummary{}, invalidInput("password confirmation does not match")
	}

	var created domain.Account
	err := s.Directory.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Accounts().Count(ctx)
		if err != nil {
			return mapStoreErr(err)
		}
		if n > 0 {
			return ErrAlreadyBootstrapped
		}

		created, err = s.Directory.create(ctx, tx, domain.NewAccount{
			Handle:      in.Handle,
			Email:       in.Email,
			DisplayName: in.DisplayName,
			Password:    in.Password,
			Role:        domain.RoleAdmin,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyBootstrapped) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		}
		return domain.AccountSummary{}, err
	}

	l.Info("first administrator created", slog.String("handle", created.Handle))
	return created.Summary(), nil
}

// EnvAdmin is the first administrator supplied through the environment.
type EnvAdmin struct {
	Handle      string
	Password    string
	DisplayName string
	Email       string
}

// ProvisionFromEnv creates the first admin from env when the directory is
// still empty. It reports whether an account was created.
func (s *BootstrapService) ProvisionFromEnv(ctx context.Context, env EnvAdmin) (bool, error) {
	if env.Handle == "" || env.Password == "" {
		return false, nil
	}

	bootstrapped, err := s.IsBootstrapped(ctx)
	if err != nil {
		return false, err
	}
	if bootstrapped {
		slogx.FromContext(ctx).Debug("directory not empty, skipping environment bootstrap")
		return false, nil
	}

	_, err = s.CreateFirstAdmin(ctx, domain.FirstAdmin{
		Handle:          env.Handle,
		Email:           env.Email,
		DisplayName:     env.DisplayName,
		Password:        env.Password,
		PasswordConfirm: env.Password,
	})
	if errors.Is(err, ErrAlreadyBootstrapped) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
