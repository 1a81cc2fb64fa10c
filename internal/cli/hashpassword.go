package cli

import (
	"github.com/dmitrijs2005/labcms/internal/server/auth"
	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for a password",
		Long:  "Print a bcrypt hash suitable for seeding the principals table by hand.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := getPassword(cmd, fromStdin, false)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", hash)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}
