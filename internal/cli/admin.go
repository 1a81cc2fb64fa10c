package cli

import (
	"database/sql"

	"github.com/dmitrijs2005/labcms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/labcms/internal/server/services"
	"github.com/spf13/cobra"
)

func newAdminCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	cmd.AddCommand(
		newAdminCreateCmd(opts),
		newAdminSetPasswordCmd(opts),
		newAdminFlagCmd(opts, "grant", "Allow an account to sign in to the admin portal", true),
		newAdminFlagCmd(opts, "revoke", "Withdraw admin portal access from an account", false),
	)
	return cmd
}

func newAdminCreateCmd(opts *options) *cobra.Command {
	var (
		fromStdin bool
		noAdmin   bool
	)

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := getPassword(cmd, fromStdin, true)
			if err != nil {
				return err
			}

			return withDB(cmd.Context(), opts, func(db *sql.DB, m repomanager.RepositoryManager) error {
				p, err := services.NewPrincipalService(db, m).Create(cmd.Context(), args[0], pw, !noAdmin)
				if err != nil {
					return err
				}
				opts.logger.Info(cmd.Context(), "principal created", "id", p.ID, "admin", p.IsAdmin)
				printf(cmd.OutOrStdout(), "Created %s (id %s, admin=%t)\n", p.Email, p.ID, p.IsAdmin)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&noAdmin, "no-admin", false, "Create the account without admin access")
	return cmd
}

func newAdminSetPasswordCmd(opts *options) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set-password <email>",
		Short: "Replace an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := getPassword(cmd, fromStdin, true)
			if err != nil {
				return err
			}

			return withDB(cmd.Context(), opts, func(db *sql.DB, m repomanager.RepositoryManager) error {
				if err := services.NewPrincipalService(db, m).SetPassword(cmd.Context(), args[0], pw); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "Password updated for %s\n", services.NormalizeEmail(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newAdminFlagCmd(opts *options, use, short string, isAdmin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), opts, func(db *sql.DB, m repomanager.RepositoryManager) error {
				if err := services.NewPrincipalService(db, m).SetAdmin(cmd.Context(), args[0], isAdmin); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%s admin=%t\n", services.NormalizeEmail(args[0]), isAdmin)
				return nil
			})
		},
	}
}
