package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newDBCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the database",
		Long:  `Manage the database schema and migrations.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create and/or upgrade the database schema",
			Long: `Create and/or upgrade the database schema.

Pending migrations are applied, then any account table left by an older
release is imported into the accounts table and dropped. Running it again
changes nothing.

Example:
  fleetdesk db migrate`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, cfg, _, err := opts.openStore()
				if err != nil {
					return err
				}
				defer st.Close()

				before, err := st.MigrationStatus()
				if err != nil {
					return err
				}
				if err := st.ApplyMigrations(); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				after, err := st.MigrationStatus()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if before.Version == after.Version {
					fmt.Fprintf(out, "%s is up to date (version %d)\n", cfg.DatabaseFile, after.Version)
				} else {
					fmt.Fprintf(out, "Migrated %s from version %d to %d\n", cfg.DatabaseFile, before.Version, after.Version)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the schema version and past legacy imports",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, cfg, _, err := opts.openStore()
				if err != nil {
					return err
				}
				defer st.Close()

				status, err := st.MigrationStatus()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", cfg.DatabaseFile)
				fmt.Fprintf(out, "Version:  %d of %d\n", status.Version, status.Latest)
				fmt.Fprintf(out, "Dirty:    %v\n", status.Dirty)
				fmt.Fprintf(out, "Pending:  %v\n", status.Pending())

				// legacy_imports exists from version 2
				if status.Version < 2 {
					return nil
				}

				imports, err := st.LegacyImports().List(cmd.Context())
				if err != nil {
					return err
				}
				if len(imports) == 0 {
					fmt.Fprintln(out, "No legacy imports")
					return nil
				}

				fmt.Fprintln(out)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TABLE\tROWS\tUPGRADED\tIMPORTED AT")
				for _, imp := range imports {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n",
						imp.SourceTable, imp.RowsImported, imp.CredentialsUpgraded,
						imp.ImportedAt.UTC().Format(time.RFC3339))
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}
