package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/neuralsys/fleetdesk/internal/auth/app"
	"github.com/neuralsys/fleetdesk/internal/auth/service"
	"github.com/neuralsys/fleetdesk/internal/auth/store/drivers/sqlite"
	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

type rootOptions struct {
	envFile  string
	database string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "fleetdesk",
		Short:         "Fleetdesk account service",
		Long:          `Runs the fleetdesk account service and manages its accounts and database.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Variables already in the environment win over the file
			err := godotenv.Load(opts.envFile)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the command runs")
	cmd.PersistentFlags().StringVar(&opts.database, "database", "", "database file (overrides FLEETDESK_DATABASE_FILE)")

	cmd.AddCommand(
		newServeCmd(opts),
		newDBCmd(opts),
		newAccountCmd(opts),
	)
	return cmd
}

// config loads the environment configuration and applies flag overrides.
func (o *rootOptions) config() app.Config {
	cfg := app.LoadConfig()
	if o.database != "" {
		cfg.DatabaseFile = o.database
	}
	return cfg
}

// openStore opens the database without migrating it.
func (o *rootOptions) openStore() (*sqlite.Store, app.Config, *slog.Logger, error) {
	cfg := o.config()
	logger := app.NewLogger(cfg)

	codec, err := app.NewPasswordCodec(cfg)
	if err != nil {
		return nil, cfg, nil, err
	}

	st, err := app.OpenStore(cfg, codec, logger)
	if err != nil {
		return nil, cfg, nil, err
	}
	return st, cfg, logger, nil
}

// withDirectory migrates the database and hands fn a directory service.
func (o *rootOptions) withDirectory(cmd *cobra.Command, fn func(ctx context.Context, dir *service.DirectoryService) error) error {
	st, cfg, logger, err := o.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	codec, err := app.NewPasswordCodec(cfg)
	if err != nil {
		return err
	}

	ctx := slogx.WithContext(cmd.Context(), logger)
	return fn(ctx, &service.DirectoryService{Store: st, Codec: codec})
}
