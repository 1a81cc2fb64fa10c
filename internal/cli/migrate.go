package cli

import (
	"database/sql"

	"github.com/dmitrijs2005/labcms/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withDB(cmd.Context(), opts, func(*sql.DB, repomanager.RepositoryManager) error {
				return nil
			})
			if err != nil {
				return err
			}
			opts.logger.Info(cmd.Context(), "migrations applied")
			printf(cmd.OutOrStdout(), "Migrations applied\n")
			return nil
		},
	}
}
