package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/neuralsys/fleetdesk/internal/auth/store/drivers/sqlite"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

const serviceName = "fleetdesk"

// NewLogger builds the service logger from cfg, writing to stderr.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: serviceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  os.Stderr,
	})
}

// NewPasswordCodec builds the codec selected by cfg.
func NewPasswordCodec(cfg Config) (*cryptox.PasswordCodec, error) {
	codec, err := cryptox.NewPasswordCodec(cfg.PasswordScheme, cfg.PasswordIterations)
	if err != nil {
		return nil, fmt.Errorf("invalid password settings: %w", err)
	}
	return codec, nil
}

// OpenStore opens the database file named by cfg. Migrations are not applied;
// callers run ApplyMigrations before any lookup.
func OpenStore(cfg Config, codec *cryptox.PasswordCodec, logger *slog.Logger) (*sqlite.Store, error) {
	st, err := sqlite.NewStore(
		sqlite.DSN(cfg.DatabaseFile),
		sqlite.WithCredentialEncoder(codec),
		sqlite.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DatabaseFile, err)
	}
	return st, nil
}
