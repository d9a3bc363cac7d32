package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/service"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
)

func newAccountCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
		Long:  `Manage accounts directly in the database, without going through the HTTP API.`,
	}

	cmd.AddCommand(
		newAccountListCmd(opts),
		newAccountCreateCmd(opts),
		newAccountResetPasswordCmd(opts),
		newAccountSetActiveCmd(opts),
		newAccountSetRoleCmd(opts),
		newAccountDeleteCmd(opts),
	)
	return cmd
}

func newAccountListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDirectory(cmd, func(ctx context.Context, dir *service.DirectoryService) error {
				list, err := dir.List(ctx)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tHANDLE\tNAME\tEMAIL\tROLE\tACTIVE")
				for _, a := range list {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%v\n",
						a.ID, a.Handle, a.DisplayName, a.Email, a.Role, a.Active)
				}
				return tw.Flush()
			})
		},
	}
}

func newAccountCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		name, email, role string
		inactive          bool
		passwordStdin     bool
	)

	cmd := &cobra.Command{
		Use:   "create <handle>",
		Short: "Create an account",
		Long: `Create an account. The password is prompted for unless
--password-stdin is given.

Example:
  fleetdesk account create neo --name "Thomas Anderson" --role user
  echo matrix | fleetdesk account create neo --password-stdin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readNewPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
			if err != nil {
				return err
			}

			return opts.withDirectory(cmd, func(ctx context.Context, dir *service.DirectoryService) error {
				a, err := dir.Create(ctx, domain.NewAccount{
					Handle:      args[0],
					Email:       email,
					DisplayName: name,
					Password:    password,
					Role:        domain.ParseRole(role),
					Inactive:    inactive,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (id %d, role %s)\n", a.Handle, a.ID, a.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", domain.RoleUser.String(), "role (admin or user)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the account disabled")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newAccountResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var (
		generate      bool
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "reset-password <handle>",
		Short: "Set a new password for an account",
		Long: `Set a new password for an account.

With --generate a random password is set and printed once.

Example:
  fleetdesk account reset-password admin --generate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				password string
				err      error
			)
			if generate {
				password, err = cryptox.GeneratePassword()
			} else {
				password, err = readNewPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
			}
			if err != nil {
				return err
			}

			return opts.withDirectory(cmd, func(ctx context.Context, dir *service.DirectoryService) error {
				if err := dir.SetPassword(ctx, args[0], password); err != nil {
					return err
				}
				if generate {
					fmt.Fprintf(cmd.OutOrStdout(), "New password for %s: %s\n", domain.NormalizeHandle(args[0]), password)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", domain.NormalizeHandle(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&generate, "generate", false, "generate a random password and print it")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("generate", "password-stdin")
	return cmd
}

func newAccountSetActiveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-active <handle> <true|false>",
		Short: "Enable or disable an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid active value %q: want true or false", args[1])
			}

			return opts.withDirectory(cmd, func(ctx context.Context, dir *service.DirectoryService) error {
				if err := dir.SetActive(ctx, args[0], active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s active=%v\n", domain.NormalizeHandle(args[0]), active)
				return nil
			})
		},
	}
}

func newAccountSetRoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <handle> <role>",
		Short: "Change the role of an account",
		Long:  `Change the role of an account. Roles other than admin are stored as user.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := domain.ParseRole(args[1])
			return opts.withDirectory(cmd, func(ctx context.Context, dir *service.DirectoryService) error {
				if err := dir.SetRole(ctx, args[0], role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s role=%s\n", domain.NormalizeHandle(args[0]), role)
				return nil
			})
		},
	}
}

func newAccountDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <handle>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDirectory(cmd, func(ctx context.Context, dir *service.DirectoryService) error {
				if err := dir.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", domain.NormalizeHandle(args[0]))
				return nil
			})
		},
	}
}
